package formatting

import "fmt"

// FormatPrice форматирует цену урока; 0 означает бесплатный урок
func FormatPrice(priceInCents int) string {
	if priceInCents == 0 {
		return "бесплатно"
	}
	price := float64(priceInCents) / 100
	if priceInCents%100 == 0 {
		return fmt.Sprintf("%.0f ₽", price)
	}
	return fmt.Sprintf("%.2f ₽", price)
}

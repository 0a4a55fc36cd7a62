package formatting

import (
	"fmt"
	"time"
)

var weekdayShort = []string{"Вс", "Пн", "Вт", "Ср", "Чт", "Пт", "Сб"}

// FormatDateTime форматирует дату и время
func FormatDateTime(t time.Time) string {
	return t.Format("02.01.2006 15:04")
}

// FormatTimeRange форматирует диапазон времени
func FormatTimeRange(start, end time.Time) string {
	return fmt.Sprintf("%s-%s", start.Format("15:04"), end.Format("15:04"))
}

// FormatEventTime форматирует время события: "Вт 14.10 19:00-20:00"
func FormatEventTime(start, end time.Time) string {
	return fmt.Sprintf("%s %s %s", WeekdayShort(int(start.Weekday())), start.Format("02.01"), FormatTimeRange(start, end))
}

// FormatDuration форматирует длительность в минутах
func FormatDuration(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%d мин", minutes)
	}
	hours := minutes / 60
	mins := minutes % 60
	if mins == 0 {
		return fmt.Sprintf("%d ч", hours)
	}
	return fmt.Sprintf("%d ч %d мин", hours, mins)
}

// WeekdayShort возвращает краткое название дня недели на русском
func WeekdayShort(weekday int) string {
	if weekday >= 0 && weekday < len(weekdayShort) {
		return weekdayShort[weekday]
	}
	return "?"
}

// GetMonthName возвращает название месяца на русском
func GetMonthName(month time.Month) string {
	names := map[time.Month]string{
		time.January:   "Январь",
		time.February:  "Февраль",
		time.March:     "Март",
		time.April:     "Апрель",
		time.May:       "Май",
		time.June:      "Июнь",
		time.July:      "Июль",
		time.August:    "Август",
		time.September: "Сентябрь",
		time.October:   "Октябрь",
		time.November:  "Ноябрь",
		time.December:  "Декабрь",
	}
	return names[month]
}

// Package render рисует недельный календарь в PNG.
package render

import (
	"bytes"
	"fmt"
	"image/color"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"github.com/Freeeeeet/lesson_scheduler/internal/calendar"
	"github.com/Freeeeeet/lesson_scheduler/internal/model"
)

// FontStyle определяет стиль шрифта
type FontStyle string

const (
	FontStyleDefault FontStyle = "" // Regular
	FontStyleMedium  FontStyle = "medium"
	FontStyleBold    FontStyle = "bold"
)

// Константы размеров и отступов
const (
	imageWidth       = 1400
	imageHeight      = 900
	headerHeight     = 100
	leftLabelsWidth  = 80
	legendWidth      = 140
	dayPaddingX      = 8
	minEventHeight   = 8.0
	eventRadius      = 6.0
	shadowOffset     = 3.0
	totalDaysInWeek  = 7
	hourPaddingTop   = 2
	hourPaddingBot   = 2
	defaultMinHour   = 8
	defaultMaxHour   = 20
	maxTitleRunes    = 18
	titleMinHeight   = 25.0
	fallbackEventHex = "#DCDCDC"
)

// Константы шрифтов
const (
	titleFontSize      = 25.0
	dayFontSize        = 27.0
	hourLabelFontSize  = 18.0
	eventTimeFontSize  = 17.0
	legendItemFontSize = 12.0
)

// Цветовая схема
var (
	bgColor          = color.RGBA{245, 246, 248, 255}
	textColor        = color.RGBA{80, 85, 90, 220}
	hourLabelColor   = color.RGBA{110, 115, 120, 200}
	hourLineColor    = color.NRGBA{150, 150, 150, 255}
	todayBgColor     = color.NRGBA{255, 99, 71, 125}
	evenDayColor     = color.NRGBA{240, 240, 240, 255}
	oddDayColor      = color.NRGBA{220, 220, 220, 255}
	currentTimeColor = color.NRGBA{255, 80, 80, 200}
	eventTextColor   = color.RGBA{20, 24, 28, 230}
	eventShadowColor = color.RGBA{0, 0, 0, 20}
	legendItemColor  = color.RGBA{70, 74, 78, 220}
)

// hourRange содержит диапазон часов для отображения
type hourRange struct {
	start int
	end   int
	total int
}

var fontData = map[FontStyle][]byte{
	FontStyleDefault: goregular.TTF,
	FontStyleMedium:  gomedium.TTF,
	FontStyleBold:    gobold.TTF,
}

var (
	fontsMu     sync.Mutex
	cachedFonts = make(map[FontStyle]*opentype.Font)
)

// loadFont загружает шрифт указанного стиля или использует basicfont как fallback
func loadFont(dc *gg.Context, size float64, style FontStyle) {
	fontsMu.Lock()
	parsed, ok := cachedFonts[style]
	if !ok {
		var err error
		parsed, err = opentype.Parse(fontData[style])
		if err != nil {
			parsed = nil
		}
		cachedFonts[style] = parsed
	}
	fontsMu.Unlock()

	if parsed != nil {
		face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
			Size:    size,
			DPI:     72,
			Hinting: font.HintingFull,
		})
		if err == nil {
			dc.SetFontFace(face)
			return
		}
	}
	dc.SetFontFace(basicfont.Face7x13)
}

// WeekStart возвращает полночь понедельника недели, в которую попадает t
func WeekStart(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	daysSinceMonday := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -daysSinceMonday)
}

// WeekImage рисует события недели, начинающейся в weekStart, в часовом поясе loc.
// now отмечается линией текущего времени, если попадает в неделю.
func WeekImage(events []model.CalendarEvent, weekStart, now time.Time, loc *time.Location) ([]byte, error) {
	if loc == nil {
		loc = time.UTC
	}
	start := WeekStart(weekStart.In(loc))
	now = now.In(loc)

	byDay := groupByDay(events, start, loc)
	hours := calculateHourRange(byDay)

	dc := createCanvas()
	dayWidth := (imageWidth - leftLabelsWidth - legendWidth) / totalDaysInWeek
	dayHeight := imageHeight - headerHeight
	cellHeight := float64(dayHeight) / float64(hours.total)

	todayIndex := dayIndex(start, now)

	drawHeader(dc, start)
	drawHourLabels(dc, hours, cellHeight)
	for i := 0; i < totalDaysInWeek; i++ {
		date := start.AddDate(0, 0, i)
		x := float64(leftLabelsWidth + i*dayWidth)
		y := float64(headerHeight)

		drawDayBackground(dc, x, y, dayWidth, dayHeight, i, i == todayIndex)
		drawDayHeader(dc, date, x, y, dayWidth)
		drawHourLines(dc, x, y, dayWidth, hours, cellHeight)
		for _, ev := range byDay[i] {
			drawEvent(dc, ev, loc, x, y, dayWidth, hours, cellHeight)
		}
	}
	if todayIndex >= 0 {
		drawCurrentTimeLine(dc, now, hours, cellHeight, dayWidth)
	}
	drawLegend(dc, dayWidth)

	return encodeImage(dc)
}

// dayIndex возвращает номер дня недели начиная с понедельника по календарной дате
func dayIndex(weekStart, t time.Time) int {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	for i := 0; i < totalDaysInWeek; i++ {
		if weekStart.AddDate(0, 0, i).Equal(d) {
			return i
		}
	}
	return -1
}

// groupByDay раскладывает события по дням недели; события вне недели отбрасываются
func groupByDay(events []model.CalendarEvent, weekStart time.Time, loc *time.Location) map[int][]model.CalendarEvent {
	byDay := make(map[int][]model.CalendarEvent)
	for _, ev := range events {
		i := dayIndex(weekStart, ev.Start.In(loc))
		if i < 0 {
			continue
		}
		byDay[i] = append(byDay[i], ev)
	}
	return byDay
}

func hourOf(t time.Time) float64 {
	return float64(t.Hour()) + float64(t.Minute())/60.0
}

// endHourOf возвращает час окончания; событие до полуночи следующего дня заканчивается в 24
func endHourOf(start, end time.Time) float64 {
	h := hourOf(end)
	if end.Day() != start.Day() || h < hourOf(start) {
		return 24
	}
	return h
}

// calculateHourRange определяет диапазон часов для отображения
func calculateHourRange(byDay map[int][]model.CalendarEvent) hourRange {
	minHour := 24
	maxHour := 0

	for _, events := range byDay {
		for _, ev := range events {
			startH := ev.Start.Hour()
			endH := ev.End.Hour()
			if ev.End.Minute() > 0 {
				endH++
			}
			if ev.End.Day() != ev.Start.Day() {
				endH = 24
			}
			if startH < minHour {
				minHour = startH
			}
			if endH > maxHour {
				maxHour = endH
			}
		}
	}

	if minHour == 24 {
		minHour = defaultMinHour
		maxHour = defaultMaxHour
	}

	startHour := max(minHour-hourPaddingTop, 0)
	endHour := min(maxHour+hourPaddingBot, 24)

	return hourRange{
		start: startHour,
		end:   endHour,
		total: endHour - startHour,
	}
}

// createCanvas создает новый контекст рисования с фоном
func createCanvas() *gg.Context {
	dc := gg.NewContext(imageWidth, imageHeight)
	dc.SetColor(bgColor)
	dc.Clear()
	return dc
}

// drawHeader рисует заголовок с названием месяца
func drawHeader(dc *gg.Context, weekStart time.Time) {
	startMonth := weekStart.Month()
	endMonth := weekStart.AddDate(0, 0, totalDaysInWeek-1).Month()

	title := monthName(startMonth)
	if startMonth != endMonth {
		title += " - " + monthName(endMonth)
	}

	loadFont(dc, titleFontSize, FontStyleBold)
	dc.SetColor(textColor)
	w, h := dc.MeasureString(title)
	dc.DrawStringAnchored(title, w/2, float64(headerHeight)/8+h/2, 0, 0)
}

// drawHourLabels рисует колонку с часами слева
func drawHourLabels(dc *gg.Context, hours hourRange, cellHeight float64) {
	loadFont(dc, hourLabelFontSize, FontStyleMedium)
	dc.SetColor(hourLabelColor)

	for hIdx := 0; hIdx < hours.total; hIdx++ {
		y := float64(headerHeight) + float64(hIdx)*cellHeight
		dc.DrawStringAnchored(formatHourLabel(hours.start+hIdx), float64(leftLabelsWidth)-10, y, 1, 0.5)
	}
}

// drawDayBackground рисует фон дня
func drawDayBackground(dc *gg.Context, x, y float64, dayWidth, dayHeight, dayIndex int, isToday bool) {
	switch {
	case isToday:
		dc.SetColor(todayBgColor)
	case dayIndex%2 == 0:
		dc.SetColor(evenDayColor)
	default:
		dc.SetColor(oddDayColor)
	}
	dc.DrawRectangle(x, y, float64(dayWidth), float64(dayHeight))
	dc.Fill()
}

// drawDayHeader рисует название дня недели и дату
func drawDayHeader(dc *gg.Context, date time.Time, x, y float64, dayWidth int) {
	loadFont(dc, dayFontSize, FontStyleBold)
	dc.SetColor(textColor)
	dc.DrawStringAnchored(date.Format("02.01"), x+float64(dayWidth)/2, y, 0.5, -1)
	dc.DrawStringAnchored(weekdayShort(date.Weekday()), x+float64(dayWidth)/2, y, 0.5, -0.2)
}

// drawHourLines рисует горизонтальные линии часов
func drawHourLines(dc *gg.Context, x, y float64, dayWidth int, hours hourRange, cellHeight float64) {
	dc.SetLineWidth(0.3)
	dc.SetColor(hourLineColor)

	for hIdx := 0; hIdx <= hours.total; hIdx++ {
		hy := y + float64(hIdx)*cellHeight
		dc.DrawLine(x, hy, x+float64(dayWidth), hy)
		dc.Stroke()
	}
}

// drawEvent рисует одно событие цветом его статуса
func drawEvent(dc *gg.Context, ev model.CalendarEvent, loc *time.Location, x, y float64, dayWidth int, hours hourRange, cellHeight float64) {
	start := ev.Start.In(loc)
	end := ev.End.In(loc)
	startHour := hourOf(start)
	endHour := endHourOf(start, end)

	eventY := y + (startHour-float64(hours.start))*cellHeight
	eventHeight := max((endHour-startHour)*cellHeight, minEventHeight)

	fill := ParseHexColor(ev.StatusColor)
	width := float64(dayWidth) - float64(dayPaddingX*2)

	// Тень
	dc.SetColor(eventShadowColor)
	dc.DrawRoundedRectangle(x+dayPaddingX+shadowOffset, eventY+2+shadowOffset, width, eventHeight-4, eventRadius)
	dc.Fill()

	dc.SetColor(fill)
	dc.DrawRoundedRectangle(x+float64(dayPaddingX), eventY+2, width, eventHeight-4, eventRadius)
	dc.Fill()

	// Рамка
	dc.SetColor(darkenColor(fill, 0.8))
	dc.SetLineWidth(1)
	dc.DrawRoundedRectangle(x+float64(dayPaddingX), eventY+2, width, eventHeight-4, eventRadius)
	dc.Stroke()

	loadFont(dc, eventTimeFontSize, FontStyleMedium)
	dc.SetColor(eventTextColor)
	txtX := x + float64(dayPaddingX) + 8
	txtY := eventY + 8 + 10
	dc.DrawStringAnchored(start.Format("15:04"), txtX, txtY, 0, 0)

	if ev.Title != "" && eventHeight > titleMinHeight {
		loadFont(dc, eventTimeFontSize-2, FontStyleDefault)
		dc.DrawStringAnchored(truncate(ev.Title, maxTitleRunes), txtX, txtY+16, 0, 0)
	}
}

// truncate обрезает строку по рунам, а не по байтам
func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-1]) + "…"
}

// ParseHexColor разбирает цвет вида "#RRGGBB"; неверное значение даёт нейтральный серый
func ParseHexColor(hex string) color.RGBA {
	s := strings.TrimPrefix(hex, "#")
	if len(s) != 6 {
		s = strings.TrimPrefix(fallbackEventHex, "#")
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return ParseHexColor(fallbackEventHex)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 230}
}

// darkenColor затемняет цвет на указанный множитель
func darkenColor(c color.RGBA, factor float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(c.R) * factor),
		G: uint8(float64(c.G) * factor),
		B: uint8(float64(c.B) * factor),
		A: c.A,
	}
}

// drawCurrentTimeLine рисует красную линию текущего времени
func drawCurrentTimeLine(dc *gg.Context, now time.Time, hours hourRange, cellHeight float64, dayWidth int) {
	currentHour := hourOf(now)
	if currentHour < float64(hours.start) || currentHour > float64(hours.end) {
		return
	}

	y := float64(headerHeight) + (currentHour-float64(hours.start))*cellHeight
	dc.SetColor(currentTimeColor)
	dc.SetLineWidth(2.0)
	dc.DrawLine(float64(leftLabelsWidth), y, float64(leftLabelsWidth+totalDaysInWeek*dayWidth), y)
	dc.Stroke()
}

// drawLegend рисует легенду статусов справа
func drawLegend(dc *gg.Context, dayWidth int) {
	legendX := float64(leftLabelsWidth + totalDaysInWeek*dayWidth + 10)
	legendY := float64(imageHeight) - 130.0

	p := calendar.DefaultPalette
	items := []struct {
		label string
		hex   string
	}{
		{"Идёт сейчас", p.Active},
		{"Запланировано", p.Scheduled},
		{"Свободно", p.Available},
		{"Завершено", p.Done},
	}

	boxW := 20.0
	boxH := 14.0
	liY := legendY + 22

	for _, item := range items {
		dc.SetColor(ParseHexColor(item.hex))
		dc.DrawRoundedRectangle(legendX, liY, boxW, boxH, 3)
		dc.Fill()

		loadFont(dc, legendItemFontSize, FontStyleDefault)
		dc.SetColor(legendItemColor)
		dc.DrawStringAnchored(item.label, legendX+boxW+8, liY+boxH/2+1, 0, 0.2)
		liY += boxH + 14
	}
}

// encodeImage кодирует изображение в PNG
func encodeImage(dc *gg.Context) ([]byte, error) {
	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func formatHourLabel(h int) string {
	return fmt.Sprintf("%02d:00", h)
}

func weekdayShort(weekday time.Weekday) string {
	return [...]string{"Вс", "Пн", "Вт", "Ср", "Чт", "Пт", "Сб"}[weekday]
}

func monthName(month time.Month) string {
	return [...]string{"", "Январь", "Февраль", "Март", "Апрель", "Май", "Июнь",
		"Июль", "Август", "Сентябрь", "Октябрь", "Ноябрь", "Декабрь"}[month]
}

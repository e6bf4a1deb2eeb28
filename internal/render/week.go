// Package render draws schedule pictures sent by the bot.
package render

import (
	"bytes"
	"fmt"
	"image/color"
	"time"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"
)

// BlockKind selects how a block is painted.
type BlockKind int

const (
	BlockFree BlockKind = iota
	BlockBooked
	BlockCompleted
	BlockMissed
)

// Block is one rectangle on the week grid.
type Block struct {
	Start time.Time
	End   time.Time
	Kind  BlockKind
	Label string
}

const (
	imageWidth      = 1400
	imageHeight     = 900
	headerHeight    = 80
	leftLabelsWidth = 70
	legendWidth     = 130
	dayPaddingX     = 6
	minBlockHeight  = 8.0
	blockRadius     = 5.0
	daysInWeek      = 7
	hourPadding     = 1
	defaultMinHour  = 8
	defaultMaxHour  = 20
	maxLabelLen     = 18
)

var (
	bgColor        = color.RGBA{245, 246, 248, 255}
	textColor      = color.RGBA{80, 85, 90, 255}
	hourLineColor  = color.RGBA{150, 150, 150, 255}
	todayColor     = color.RGBA{255, 210, 200, 255}
	evenDayColor   = color.RGBA{240, 240, 240, 255}
	oddDayColor    = color.RGBA{225, 225, 225, 255}
	nowLineColor   = color.RGBA{255, 80, 80, 220}
	blockTextColor = color.RGBA{20, 24, 28, 255}

	kindColors = map[BlockKind]color.RGBA{
		BlockFree:      {133, 193, 85, 230},
		BlockBooked:    {255, 182, 193, 255},
		BlockCompleted: {120, 170, 230, 255},
		BlockMissed:    {170, 170, 170, 230},
	}
	kindLabels = []struct {
		kind  BlockKind
		label string
	}{
		{BlockFree, "Free"},
		{BlockBooked, "Booked"},
		{BlockCompleted, "Completed"},
		{BlockMissed, "Canceled/no-show"},
	}
)

type hourRange struct {
	start int
	end   int
}

func (h hourRange) total() int { return h.end - h.start + 1 }

// Week renders seven days starting at weekStart as a PNG. Blocks are drawn in
// loc; blocks outside the week are ignored.
func Week(weekStart time.Time, blocks []Block, now time.Time, loc *time.Location) ([]byte, error) {
	weekStart = time.Date(weekStart.Year(), weekStart.Month(), weekStart.Day(), 0, 0, 0, 0, loc)
	weekEnd := weekStart.AddDate(0, 0, daysInWeek)

	byDay := make(map[int][]Block)
	for _, bl := range blocks {
		start := bl.Start.In(loc)
		if start.Before(weekStart) || !start.Before(weekEnd) {
			continue
		}
		idx := dayIndex(weekStart, start)
		bl.Start, bl.End = start, bl.End.In(loc)
		byDay[idx] = append(byDay[idx], bl)
	}
	hours := visibleHours(byDay)

	dc := gg.NewContext(imageWidth, imageHeight)
	dc.SetColor(bgColor)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)

	dayWidth := float64(imageWidth-leftLabelsWidth-legendWidth) / daysInWeek
	cellHeight := float64(imageHeight-headerHeight) / float64(hours.total())
	now = now.In(loc)
	today := -1
	if !now.Before(weekStart) && now.Before(weekEnd) {
		today = dayIndex(weekStart, now)
	}

	drawTitle(dc, weekStart)
	drawHourLabels(dc, hours, cellHeight)
	for i := range daysInWeek {
		x := float64(leftLabelsWidth) + float64(i)*dayWidth
		drawDay(dc, weekStart.AddDate(0, 0, i), x, dayWidth, i, i == today)
		drawHourLines(dc, x, dayWidth, hours, cellHeight)
		for _, bl := range byDay[i] {
			drawBlock(dc, bl, x, dayWidth, hours, cellHeight)
		}
	}
	if today >= 0 {
		drawNowLine(dc, now, hours, cellHeight, dayWidth)
	}
	drawLegend(dc, float64(leftLabelsWidth)+daysInWeek*dayWidth+10)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode week image: %w", err)
	}
	return buf.Bytes(), nil
}

func dayIndex(weekStart, t time.Time) int {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	for i := range daysInWeek {
		if weekStart.AddDate(0, 0, i).Equal(d) {
			return i
		}
	}
	return 0
}

func visibleHours(byDay map[int][]Block) hourRange {
	minHour, maxHour := 24, 0
	for _, day := range byDay {
		for _, bl := range day {
			minHour = min(minHour, bl.Start.Hour())
			endH := bl.End.Hour()
			if bl.End.Minute() > 0 {
				endH++
			}
			if !sameDay(bl.Start, bl.End) {
				endH = 24
			}
			maxHour = max(maxHour, endH)
		}
	}
	if minHour == 24 {
		return hourRange{start: defaultMinHour, end: defaultMaxHour}
	}
	return hourRange{
		start: max(minHour-hourPadding, 0),
		end:   min(maxHour+hourPadding, 23),
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func drawTitle(dc *gg.Context, weekStart time.Time) {
	end := weekStart.AddDate(0, 0, daysInWeek-1)
	title := fmt.Sprintf("%s - %s", weekStart.Format("02 Jan"), end.Format("02 Jan 2006"))
	dc.SetColor(textColor)
	dc.DrawStringAnchored(title, imageWidth/2, headerHeight/4, 0.5, 0.5)
}

func drawHourLabels(dc *gg.Context, hours hourRange, cellHeight float64) {
	dc.SetColor(textColor)
	for i := range hours.total() {
		y := float64(headerHeight) + float64(i)*cellHeight
		dc.DrawStringAnchored(fmt.Sprintf("%02d:00", hours.start+i), leftLabelsWidth-8, y, 1, 0.5)
	}
}

func drawDay(dc *gg.Context, date time.Time, x, width float64, idx int, isToday bool) {
	switch {
	case isToday:
		dc.SetColor(todayColor)
	case idx%2 == 0:
		dc.SetColor(evenDayColor)
	default:
		dc.SetColor(oddDayColor)
	}
	dc.DrawRectangle(x, headerHeight, width, imageHeight-headerHeight)
	dc.Fill()

	dc.SetColor(textColor)
	dc.DrawStringAnchored(date.Format("Mon 02.01"), x+width/2, headerHeight-14, 0.5, 0.5)
}

func drawHourLines(dc *gg.Context, x, width float64, hours hourRange, cellHeight float64) {
	dc.SetLineWidth(0.3)
	dc.SetColor(hourLineColor)
	for i := 0; i <= hours.total(); i++ {
		y := float64(headerHeight) + float64(i)*cellHeight
		dc.DrawLine(x, y, x+width, y)
		dc.Stroke()
	}
}

func drawBlock(dc *gg.Context, bl Block, x, width float64, hours hourRange, cellHeight float64) {
	startH := float64(bl.Start.Hour()) + float64(bl.Start.Minute())/60
	endH := float64(bl.End.Hour()) + float64(bl.End.Minute())/60
	if !sameDay(bl.Start, bl.End) {
		endH = 24
	}

	y := float64(headerHeight) + (startH-float64(hours.start))*cellHeight
	height := max((endH-startH)*cellHeight, minBlockHeight)
	w := width - 2*dayPaddingX

	fill := kindColors[bl.Kind]
	dc.SetColor(fill)
	dc.DrawRoundedRectangle(x+dayPaddingX, y+1, w, height-2, blockRadius)
	dc.Fill()

	dc.SetColor(darken(fill, 0.8))
	dc.SetLineWidth(1)
	dc.DrawRoundedRectangle(x+dayPaddingX, y+1, w, height-2, blockRadius)
	dc.Stroke()

	dc.SetColor(blockTextColor)
	dc.DrawString(bl.Start.Format("15:04"), x+dayPaddingX+6, y+14)
	if label := truncate(bl.Label, maxLabelLen); label != "" && height > 30 {
		dc.DrawString(label, x+dayPaddingX+6, y+28)
	}
}

func drawNowLine(dc *gg.Context, now time.Time, hours hourRange, cellHeight, dayWidth float64) {
	h := float64(now.Hour()) + float64(now.Minute())/60
	if h < float64(hours.start) || h > float64(hours.end+1) {
		return
	}
	y := float64(headerHeight) + (h-float64(hours.start))*cellHeight
	dc.SetColor(nowLineColor)
	dc.SetLineWidth(2)
	dc.DrawLine(leftLabelsWidth, y, leftLabelsWidth+daysInWeek*dayWidth, y)
	dc.Stroke()
}

func drawLegend(dc *gg.Context, x float64) {
	y := float64(imageHeight) - 130
	for _, item := range kindLabels {
		dc.SetColor(kindColors[item.kind])
		dc.DrawRoundedRectangle(x, y, 18, 12, 3)
		dc.Fill()
		dc.SetColor(textColor)
		dc.DrawStringAnchored(item.label, x+26, y+6, 0, 0.5)
		y += 26
	}
}

func darken(c color.RGBA, factor float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(c.R) * factor),
		G: uint8(float64(c.G) * factor),
		B: uint8(float64(c.B) * factor),
		A: c.A,
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

package service

import (
	"fmt"
	"strconv"
	"strings"

	"cloud.google.com/go/civil"
)

var weekdayNames = map[string]int{
	"mon": 1, "tue": 2, "wed": 3, "thu": 4, "fri": 5, "sat": 6, "sun": 7,
}

// ParseDay accepts today, tomorrow or a YYYY-MM-DD date.
func ParseDay(raw string, today civil.Date) (civil.Date, error) {
	raw = strings.TrimSpace(raw)
	switch strings.ToLower(raw) {
	case "today":
		return today, nil
	case "tomorrow":
		return today.AddDays(1), nil
	}
	d, err := civil.ParseDate(raw)
	if err != nil {
		return civil.Date{}, fmt.Errorf("cannot read date %q, use YYYY-MM-DD", raw)
	}
	return d, nil
}

// ParseWeekdays reads weekdays as numbers 1..7 (Monday is 1) or short names,
// separated by commas or spaces. Duplicates are dropped.
func ParseWeekdays(raw string) ([]int, error) {
	var days []int
	seen := map[int]bool{}
	for _, item := range strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ' ' }) {
		item = strings.ToLower(item)
		d, ok := weekdayNames[item]
		if !ok {
			n, err := strconv.Atoi(item)
			if err != nil || n < 1 || n > 7 {
				return nil, fmt.Errorf("unknown weekday %q, use 1-7 or mon..sun", item)
			}
			d = n
		}
		if !seen[d] {
			seen[d] = true
			days = append(days, d)
		}
	}
	return days, nil
}

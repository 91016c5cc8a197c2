package domain

import (
	"fmt"
	"time"
)

const (
	DateSourceName    = "name"
	DateSourceExif    = "exif"
	DateSourceCreated = "created"
)

// InferredDate 是从文件名或文件时间推断出的 (年, 月, 日)。
//
// 约束：不做日历校验（例如 2024-13-40 也会被原样接受），需要校验时调用 Valid。
type InferredDate struct {
	Year  int
	Month int
	Day   int
}

// DateOf 取 t 在其自身时区下的年月日（调用方负责传入本地时间）。
func DateOf(t time.Time) InferredDate {
	return InferredDate{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}
}

// Valid 只检查 month ∈ [1,12]、day ∈ [1,31]。
func (d InferredDate) Valid() bool {
	return d.Month >= 1 && d.Month <= 12 && d.Day >= 1 && d.Day <= 31
}

// MonthFolder 形如 "2024-01"（父级目录）。
func (d InferredDate) MonthFolder() string {
	return fmt.Sprintf("%d-%02d", d.Year, d.Month)
}

// DayFolder 形如 "2024-01-05"（子级目录）。
func (d InferredDate) DayFolder() string {
	return fmt.Sprintf("%d-%02d-%02d", d.Year, d.Month, d.Day)
}

// FlatFolder 形如 "2024-1-5"（legacy-dash 策略的单层目录，不补零）。
func (d InferredDate) FlatFolder() string {
	return fmt.Sprintf("%d-%d-%d", d.Year, d.Month, d.Day)
}

// Prefix 是按创建时间重命名时加在原文件名前的前缀。
func (d InferredDate) Prefix() string {
	return d.DayFolder() + "_"
}

func (d InferredDate) String() string { return d.DayFolder() }

package app

import (
	"sort"

	"github.com/John-Robertt/screensorter/internal/datename"
	"github.com/John-Robertt/screensorter/internal/domain"
)

// ParseFunc 从文件名解析日期（由策略提供）。
type ParseFunc func(name string) (domain.InferredDate, error)

// GroupByDate 把截图分为“文件名带日期”与“文件名无日期”两组。
//
// - strict=true 时，月/日越界的日期视为没有日期（归入 undated，Kind=out_of_range）
// - dated 稳定排序：按日期，再按文件名
// - undated 保持输入顺序（扫描结果已按名字排序）
func GroupByDate(files []domain.ShotFile, parse ParseFunc, strict bool) (dated []domain.DatedShot, undated []domain.Undated) {
	dated = make([]domain.DatedShot, 0, len(files))
	undated = make([]domain.Undated, 0, 8)

	for _, f := range files {
		d, err := parse(f.Name)
		if err == nil && strict && !d.Valid() {
			err = &datename.UnmatchedError{Kind: datename.KindOutOfRange, Name: f.Name}
		}
		if err != nil {
			undated = append(undated, domain.Undated{File: f, Err: err})
			continue
		}
		dated = append(dated, domain.DatedShot{File: f, Date: d})
	}

	sort.SliceStable(dated, func(i, j int) bool {
		a, b := dated[i], dated[j]
		if a.Date != b.Date {
			return a.Date.DayFolder() < b.Date.DayFolder()
		}
		return a.File.Name < b.File.Name
	})
	return dated, undated
}

package run

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/John-Robertt/screensorter/internal/app"
	"github.com/John-Robertt/screensorter/internal/app/planner"
	"github.com/John-Robertt/screensorter/internal/config"
	"github.com/John-Robertt/screensorter/internal/domain"
	"github.com/John-Robertt/screensorter/internal/infra/fsx"
	"github.com/John-Robertt/screensorter/internal/infra/pngmeta"
	"github.com/John-Robertt/screensorter/internal/logging"
	"github.com/John-Robertt/screensorter/internal/scan"
	"github.com/John-Robertt/screensorter/internal/strategy"
)

// ErrBusy 表示同一个 Sorter 上已有一次整理正在进行。
var ErrBusy = errors.New("已有整理任务正在进行")

// Options 控制一次整理的行为。零值可用：canonical 策略、真实执行、不输出日志。
type Options struct {
	Strategy    strategy.Strategy
	StrictDates bool
	UseExif     bool
	Exclude     []string
	DryRun      bool

	Logger   *slog.Logger
	Observer Observer

	// 以下用于测试注入；nil 时使用真实实现。
	Now          func() time.Time
	CreationTime func(fsys afero.Fs, path string, fi os.FileInfo) time.Time
	ExifDate     func(fsys afero.Fs, path string) (time.Time, error)
}

// Sorter 把根目录下的截图与日期文件夹归位到日期目录中。
//
// 约束：
// - 单线程顺序执行；同一 Sorter 不允许重入（ErrBusy）
// - 单条失败只记录在 ItemResult 中，不中断整批
type Sorter struct {
	fsys afero.Fs
	opts Options
	log  *slog.Logger
	busy atomic.Bool
}

func New(fsys afero.Fs, opts Options) *Sorter {
	if opts.Strategy.Parse == nil {
		opts.Strategy = strategy.Canonical()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.CreationTime == nil {
		opts.CreationTime = fsx.CreationTime
	}
	if opts.ExifDate == nil {
		opts.ExifDate = readExifDate
	}
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}
	return &Sorter{fsys: fsys, opts: opts, log: log.With("component", "sorter")}
}

// Sort 整理 folder。返回的 error 只可能是：
// - *config.Error（config_missing_folder / config_folder_invalid），此时不做任何改动
// - ErrBusy
//
// 其他所有问题都降级为条目级失败，体现在 RunReport 中。
func (s *Sorter) Sort(ctx context.Context, folder string) (domain.RunReport, error) {
	if folder == "" {
		return domain.RunReport{}, &config.Error{Code: config.ErrCodeMissingFolder}
	}
	if !s.busy.CompareAndSwap(false, true) {
		return domain.RunReport{}, ErrBusy
	}
	defer s.busy.Store(false)

	root := filepath.Clean(folder)
	fi, err := s.fsys.Stat(root)
	if err != nil {
		return domain.RunReport{}, &config.Error{Code: config.ErrCodeFolderInvalid, Path: root, Err: err}
	}
	if !fi.IsDir() {
		return domain.RunReport{}, &config.Error{Code: config.ErrCodeFolderInvalid, Path: root, Err: errors.New("不是目录")}
	}

	strat := s.opts.Strategy
	runID := uuid.NewString()
	log := s.log.With("run_id", runID)
	rr := domain.RunReport{
		RunID:     runID,
		Path:      root,
		Strategy:  strat.Name,
		DryRun:    s.opts.DryRun,
		StartedAt: s.opts.Now(),
		Items:     make([]domain.ItemResult, 0, 64),
	}

	obs := s.opts.Observer
	if obs != nil {
		obs.OnStart(root, strat.Name, s.opts.DryRun)
	}
	log.Info("开始整理", "path", root, "strategy", strat.Name, "dry_run", s.opts.DryRun)

	scanStarted := time.Now()
	res, err := scan.ScanRoot(s.fsys, root, s.opts.Exclude)
	if err != nil {
		if errors.Is(err, scan.ErrInvalidPattern) {
			return domain.RunReport{}, &config.Error{Code: config.ErrCodeInvalid, Err: err}
		}
		return domain.RunReport{}, &config.Error{Code: config.ErrCodeFolderInvalid, Path: root, Err: err}
	}
	folders := res.Folders
	if !strat.PromoteFolders {
		folders = nil
	}
	if obs != nil {
		obs.OnPhaseDone("scan", map[string]any{
			"files":   len(res.Files),
			"folders": len(folders),
		}, time.Since(scanStarted))
	}

	groupStarted := time.Now()
	dated, undated := app.GroupByDate(res.Files, strat.Parse, s.opts.StrictDates)
	if obs != nil {
		obs.OnPhaseDone("group", map[string]any{
			"dated":   len(dated),
			"undated": len(undated),
		}, time.Since(groupStarted))
	}

	total := len(dated) + len(undated) + len(folders)
	reserved := planner.Reserved{}
	done := 0
	emit := func(item domain.ItemResult, started time.Time) {
		done++
		rr.Items = append(rr.Items, item)
		logItem(log, item)
		if obs != nil {
			obs.OnItemDone(done, total, item, time.Since(started))
		}
	}

	for _, u := range undated {
		started := time.Now()
		if ctx.Err() != nil {
			emit(interrupted(domain.KindFile, u.File.Name), started)
			continue
		}
		emit(s.sortUndated(root, u, reserved), started)
	}
	for _, d := range dated {
		started := time.Now()
		if ctx.Err() != nil {
			emit(interrupted(domain.KindFile, d.File.Name), started)
			continue
		}
		item := domain.ItemResult{
			Kind:       domain.KindFile,
			Src:        d.File.Name,
			Date:       d.Date.String(),
			DateSource: domain.DateSourceName,
		}
		emit(s.relocateFile(root, d.File.AbsPath, d.File.Size, d.Date, item, reserved), started)
	}
	for _, f := range folders {
		started := time.Now()
		if ctx.Err() != nil {
			emit(interrupted(domain.KindFolder, f.Name), started)
			continue
		}
		emit(s.promoteFolder(root, f, reserved), started)
	}

	rr.FinishedAt = s.opts.Now()
	rr.Finalize()

	if obs != nil {
		obs.OnPhaseDone("exec", map[string]any{
			"moved":   rr.Summary.Moved,
			"planned": rr.Summary.Planned,
			"failed":  rr.Summary.Failed,
		}, rr.FinishedAt.Sub(rr.StartedAt))
	}
	log.Info("整理结束", "outcome", rr.Outcome, "moved", rr.Summary.Moved, "failed", rr.Summary.Failed)
	return rr, nil
}

// sortUndated 处理文件名中没有日期的截图：策略允许兜底时，
// 取 EXIF（可选）或创建时间，先原地加日期前缀重命名，再按日期归位。
func (s *Sorter) sortUndated(root string, u domain.Undated, reserved planner.Reserved) domain.ItemResult {
	f := u.File
	item := domain.ItemResult{Kind: domain.KindFile, Src: f.Name}

	if !s.opts.Strategy.Fallback {
		return failed(item, domain.ErrCodeParseFailed, u.Err.Error())
	}

	d, source, err := s.fallbackDate(f.AbsPath)
	if err != nil {
		return failed(item, domain.ErrCodeIOFailed, fmt.Sprintf("读取文件时间失败：%v", err))
	}
	item.Date = d.String()
	item.DateSource = source

	newName, err := planner.AllocName(s.fsys, root, d.Prefix()+f.Name, reserved)
	if err != nil {
		return failed(item, domain.ErrCodeIOFailed, fmt.Sprintf("检查重命名目标失败：%v", err))
	}
	src := filepath.Join(root, newName)
	reserved.Add(src)

	if !s.opts.DryRun {
		if err := fsx.Rename(s.fsys, f.AbsPath, src); err != nil {
			return failed(item, domain.ErrCodeIOFailed, fmt.Sprintf("原地重命名失败：%v", err))
		}
	}
	item.Renamed = newName
	return s.relocateFile(root, src, f.Size, d, item, reserved)
}

func (s *Sorter) fallbackDate(path string) (domain.InferredDate, string, error) {
	if s.opts.UseExif {
		t, err := s.opts.ExifDate(s.fsys, path)
		if err == nil {
			return domain.DateOf(t), domain.DateSourceExif, nil
		}
		if !errors.Is(err, pngmeta.ErrNoExif) {
			s.log.Debug("读取 EXIF 失败，改用创建时间", "path", path, "error", err)
		}
	}

	fi, err := s.fsys.Stat(path)
	if err != nil {
		return domain.InferredDate{}, "", err
	}
	return domain.DateOf(s.opts.CreationTime(s.fsys, path, fi)), domain.DateSourceCreated, nil
}

// relocateFile 把 src 放到 d 对应的目标目录（名字冲突时追加 _N），并填写 item 的结果字段。
//
// 复制模式下严格遵守：复制 → 校验 → 确认目标存在 → 删除原文件；任一步失败原文件保持不动。
func (s *Sorter) relocateFile(root, src string, size int64, d domain.InferredDate, item domain.ItemResult, reserved planner.Reserved) domain.ItemResult {
	strat := s.opts.Strategy
	destDir := strat.DestDir(root, d)
	name := filepath.Base(src)

	if s.opts.DryRun {
		got, err := planner.AllocName(s.fsys, destDir, name, reserved)
		if err != nil {
			return failed(item, domain.ErrCodeIOFailed, fmt.Sprintf("检查目标失败：%v", err))
		}
		dst := filepath.Join(destDir, got)
		reserved.Add(dst)
		item.Dst = rel(root, dst)
		item.Status = domain.StatusPlanned
		item.Bytes = size
		return item
	}

	if err := fsx.EnsureDir(s.fsys, destDir); err != nil {
		if fsx.IsPathTypeConflict(err) {
			return failed(item, domain.ErrCodeTargetConflict, err.Error())
		}
		return failed(item, domain.ErrCodeIOFailed, fmt.Sprintf("创建目录失败：%v", err))
	}

	got, err := planner.AllocName(s.fsys, destDir, name, reserved)
	if err != nil {
		return failed(item, domain.ErrCodeIOFailed, fmt.Sprintf("检查目标失败：%v", err))
	}
	dst := filepath.Join(destDir, got)
	item.Dst = rel(root, dst)

	switch strat.Relocation {
	case strategy.RelocateMove:
		if err := fsx.Rename(s.fsys, src, dst); err != nil {
			return failed(item, domain.ErrCodeMoveFailed, err.Error())
		}
		item.Bytes = size
	default:
		n, err := fsx.CopyFileVerified(s.fsys, src, dst)
		if err != nil {
			if errors.Is(err, os.ErrExist) {
				return failed(item, domain.ErrCodeTargetConflict, fmt.Sprintf("目标已存在：%v", err))
			}
			return failed(item, domain.ErrCodeIOFailed, fmt.Sprintf("复制失败：%v", err))
		}
		if _, err := s.fsys.Stat(dst); err != nil {
			return failed(item, domain.ErrCodeIOFailed, fmt.Sprintf("复制后无法确认目标存在，保留原文件：%v", err))
		}
		if err := s.fsys.Remove(src); err != nil {
			return failed(item, domain.ErrCodeIOFailed, fmt.Sprintf("已复制但删除原文件失败：%v", err))
		}
		item.Bytes = n
	}

	if item.Renamed != "" {
		item.Status = domain.StatusRenamedMoved
	} else {
		item.Status = domain.StatusMoved
	}
	return item
}

// promoteFolder 把根目录下的日期文件夹（例如 2024-3-7）移到 <root>/<YYYY>-<MM>/ 下，名字保持不变。
// 目标已存在同名目录时逐项合并（冲突项追加 _N），合并完且源目录为空才删除源目录。
func (s *Sorter) promoteFolder(root string, f domain.DateFolder, reserved planner.Reserved) domain.ItemResult {
	item := domain.ItemResult{
		Kind:       domain.KindFolder,
		Src:        f.Name,
		Date:       f.Date.String(),
		DateSource: domain.DateSourceName,
	}
	if s.opts.StrictDates && !f.Date.Valid() {
		return failed(item, domain.ErrCodeParseFailed, fmt.Sprintf("文件夹名 %q 中的日期超出范围（月 1~12，日 1~31）", f.Name))
	}

	parent := planner.MonthDir(root, f.Date)
	dst := filepath.Join(parent, f.Name)
	item.Dst = rel(root, dst)

	if s.opts.DryRun {
		reserved.Add(dst)
		item.Status = domain.StatusPlanned
		return item
	}

	if err := fsx.EnsureDir(s.fsys, parent); err != nil {
		if fsx.IsPathTypeConflict(err) {
			return failed(item, domain.ErrCodeTargetConflict, err.Error())
		}
		return failed(item, domain.ErrCodeIOFailed, fmt.Sprintf("创建目录失败：%v", err))
	}

	fi, err := s.fsys.Stat(dst)
	switch {
	case err == nil && !fi.IsDir():
		return failed(item, domain.ErrCodeTargetConflict, (&fsx.PathTypeConflictError{Path: dst, Want: "dir", Got: "file"}).Error())
	case err == nil:
		if err := s.mergeDir(f.AbsPath, dst); err != nil {
			return failed(item, domain.ErrCodeMoveFailed, err.Error())
		}
	case os.IsNotExist(err):
		if err := fsx.Rename(s.fsys, f.AbsPath, dst); err != nil {
			return failed(item, domain.ErrCodeMoveFailed, err.Error())
		}
	default:
		return failed(item, domain.ErrCodeIOFailed, fmt.Sprintf("检查目标失败：%v", err))
	}

	item.Status = domain.StatusMoved
	return item
}

func (s *Sorter) mergeDir(src, dst string) error {
	entries, err := afero.ReadDir(s.fsys, src)
	if err != nil {
		return fmt.Errorf("读取文件夹失败：%w", err)
	}
	for _, e := range entries {
		name, err := planner.AllocName(s.fsys, dst, e.Name(), nil)
		if err != nil {
			return fmt.Errorf("检查合并目标失败：%w", err)
		}
		if err := fsx.Rename(s.fsys, filepath.Join(src, e.Name()), filepath.Join(dst, name)); err != nil {
			return fmt.Errorf("合并 %q 失败：%w", e.Name(), err)
		}
	}
	if err := s.fsys.Remove(src); err != nil {
		return fmt.Errorf("合并完成但删除原文件夹失败：%w", err)
	}
	return nil
}

func readExifDate(fsys afero.Fs, path string) (time.Time, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return time.Time{}, err
	}
	defer f.Close()
	return pngmeta.ReadExifDate(f)
}

func failed(item domain.ItemResult, code, msg string) domain.ItemResult {
	item.Status = domain.StatusFailed
	item.ErrorCode = code
	item.ErrorMsg = msg
	return item
}

func interrupted(kind, name string) domain.ItemResult {
	return domain.ItemResult{
		Kind:      kind,
		Src:       name,
		Status:    domain.StatusFailed,
		ErrorCode: domain.ErrCodeInterrupted,
		ErrorMsg:  "整理被中断，未处理",
	}
}

func rel(root, p string) string {
	r, err := filepath.Rel(root, p)
	if err != nil {
		return filepath.ToSlash(p)
	}
	return filepath.ToSlash(r)
}

func logItem(log *slog.Logger, item domain.ItemResult) {
	switch item.Status {
	case domain.StatusFailed:
		log.Warn("整理失败", "kind", item.Kind, "src", item.Src, "error_code", item.ErrorCode, "error", item.ErrorMsg)
	case domain.StatusPlanned:
		log.Debug("已规划", "kind", item.Kind, "src", item.Src, "dst", item.Dst)
	default:
		log.Info("已归位", "kind", item.Kind, "src", item.Src, "renamed", item.Renamed, "dst", item.Dst)
	}
}

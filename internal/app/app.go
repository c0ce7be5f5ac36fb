package app

import (
	"context"
	"fmt"

	"github.com/spf13/afero"

	"github.com/moyu-x/dropwatch/internal"
	"github.com/moyu-x/dropwatch/pkg/classifier"
	"github.com/moyu-x/dropwatch/pkg/config"
	"github.com/moyu-x/dropwatch/pkg/database"
	"github.com/moyu-x/dropwatch/pkg/eventlog"
	"github.com/moyu-x/dropwatch/pkg/hasher"
	"github.com/moyu-x/dropwatch/pkg/logger"
	"github.com/moyu-x/dropwatch/pkg/namer"
	"github.com/moyu-x/dropwatch/pkg/pipeline"
	"github.com/moyu-x/dropwatch/pkg/record"
	"github.com/moyu-x/dropwatch/pkg/scanner"
	"github.com/moyu-x/dropwatch/pkg/stability"
	"github.com/moyu-x/dropwatch/pkg/vault"
)

// Options 命令行传入的覆盖项
type Options struct {
	ConfigFile string
	VaultPath  string
	DryRun     bool
	Verbose    bool
}

// Result 一次运行的统计与实际生效的预览模式
type Result struct {
	Stats  internal.ProcessStats
	DryRun bool
}

// runtime 一次运行所需的全部组件
type runtime struct {
	cfg      *config.Config
	fs       afero.Fs
	layout   vault.Layout
	db       *database.Database
	pipeline *pipeline.Pipeline
}

func loadConfig(opts *Options) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.ConfigFile != "" {
		cfg, err = config.LoadFile(opts.ConfigFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("加载配置失败: %w", err)
	}

	if opts.VaultPath != "" {
		cfg.Vault.Path = opts.VaultPath
	}
	if opts.DryRun {
		cfg.DryRun = true
	}

	logLevel := cfg.Logging.Level
	if opts.Verbose {
		logLevel = "debug"
	}
	if err := logger.Init(logLevel, cfg.Logging.File); err != nil {
		return nil, fmt.Errorf("初始化日志失败: %w", err)
	}

	logger.Get().Info().Msg("加载配置完成")
	logger.Get().Info().Msgf("Vault 路径: %s", cfg.Vault.Path)
	if cfg.DryRun {
		logger.Get().Info().Msg("=== 预览模式，不会实际写入文件 ===")
	}
	return cfg, nil
}

// prepare 校验 vault，恢复已处理集合并组装处理流程
func prepare(fs afero.Fs, opts *Options) (*runtime, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	layout := vault.New(cfg.Vault.Path)
	if err := layout.Validate(fs); err != nil {
		logger.Get().Error().Err(err).Msg("vault 结构不完整，请先运行 init")
		return nil, err
	}

	h, err := hasher.New(fs, cfg.Hash.Algorithm)
	if err != nil {
		return nil, err
	}
	logger.Get().Info().Str("algorithm", h.Algorithm()).Msg("指纹算法")

	processed, err := eventlog.Replay(fs, layout.Logs)
	if err != nil {
		return nil, fmt.Errorf("恢复处理记录失败: %w", err)
	}

	rt := &runtime{cfg: cfg, fs: fs, layout: layout}

	p := &pipeline.Pipeline{
		Fs:        fs,
		Stability: stability.New(fs, cfg.Stability.Interval, cfg.Stability.MaxChecks),
		Hasher:    h,
		Processed: processed,
		Namer:     namer.New(fs, layout.NeedsAction),
		Records:   record.NewWriter(fs, layout.NeedsAction, cfg.DryRun),
		Journal:   eventlog.NewJournal(fs, layout.Logs, cfg.DryRun),
		Types:     classifier.NewDetector(fs),
	}

	// 预览模式下不写索引
	if cfg.Database.Path != "" && !cfg.DryRun {
		db, err := database.NewDatabase(cfg.Database.Path)
		if err != nil {
			return nil, err
		}
		hashes, err := db.Hashes()
		if err != nil {
			db.Close()
			return nil, err
		}
		processed.Merge(hashes)
		logger.Get().Info().Int("count", len(hashes)).Msg("已从索引加载指纹")

		rt.db = db
		p.Index = db
	}

	logger.Get().Info().Int("count", processed.Len()).Msg("已处理指纹数")
	rt.pipeline = p
	return rt, nil
}

func (r *runtime) close() {
	if r.db != nil {
		r.db.Close()
	}
}

func (r *runtime) scan(ctx context.Context) (internal.ProcessStats, error) {
	return scanner.New(r.fs, r.layout.Inbox, r.pipeline).Scan(ctx)
}

// RunScan 单次处理收件目录中已有的文件
func RunScan(ctx context.Context, fs afero.Fs, opts *Options) (*Result, error) {
	rt, err := prepare(fs, opts)
	if err != nil {
		return nil, err
	}
	defer rt.close()

	stats, err := rt.scan(ctx)
	if err != nil {
		return nil, err
	}
	return &Result{Stats: stats, DryRun: rt.cfg.DryRun}, nil
}

// RunInit 创建 vault 目录结构
func RunInit(fs afero.Fs, opts *Options) (vault.Layout, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return vault.Layout{}, err
	}

	layout := vault.New(cfg.Vault.Path)
	if err := layout.Ensure(fs); err != nil {
		return vault.Layout{}, err
	}
	logger.Get().Info().Str("root", layout.Root).Msg("vault 已初始化")
	return layout, nil
}

// RunHistory 读取索引中最近的记录
func RunHistory(opts *Options, limit int) ([]database.ActionRow, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	if cfg.Database.Path == "" {
		return nil, fmt.Errorf("未配置 database.path，记录索引未启用")
	}

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	return db.Recent(limit)
}

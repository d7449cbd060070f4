package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/rustmods/mod-hub/internal/archive"
	"github.com/rustmods/mod-hub/internal/cache"
	"github.com/rustmods/mod-hub/internal/catalog"
	"github.com/rustmods/mod-hub/internal/config"
	"github.com/rustmods/mod-hub/internal/derive"
	"github.com/rustmods/mod-hub/internal/listing"
	"github.com/rustmods/mod-hub/internal/logging"
	"github.com/rustmods/mod-hub/internal/server"
	"github.com/rustmods/mod-hub/internal/server/routes"
	"github.com/rustmods/mod-hub/internal/version"
)

// cliOptions 汇总 CLI 标志解析后的结果，便于在测试中注入。
type cliOptions struct {
	configPath  string
	checkOnly   bool
	showVersion bool
}

var (
	stdOut io.Writer = os.Stdout
	stdErr io.Writer = os.Stderr
)

func main() {
	opts, err := parseCLIFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(stdErr, err.Error())
		os.Exit(2)
	}
	os.Exit(run(opts))
}

// run 根据解析到的 CLI 选项执行业务流程，并返回退出码，方便测试。
func run(opts cliOptions) int {
	if opts.showVersion {
		printVersion()
		return 0
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(stdErr, "加载配置失败: %v\n", err)
		return 1
	}

	logger, err := logging.InitLogger(cfg.Global)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化日志失败: %v\n", err)
		return 1
	}

	if opts.checkOnly {
		fields := logging.BaseFields("check_config", opts.configPath)
		fields["fallback_naming"] = cfg.Global.FallbackNaming
		fields["list_cache_ttl"] = cfg.Global.ListCacheTTL.DurationValue().String()
		fields["result"] = "ok"
		logger.WithFields(fields).Info("配置校验通过")
		return 0
	}

	store, err := catalog.NewStore(cfg.Global.DatabasePath, logger)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化目录库失败: %v\n", err)
		return 1
	}
	defer store.Close()

	// 启动顺序：配置 → 目录库 → 短期存储 → 巡检器 → 解析器 → 列表缓存
	// → Fiber server，保证所有请求共享同一份缓存与巡检实例。
	flags := cache.NewStore()
	fetcher := archive.NewFetcher(&http.Client{Timeout: cfg.Global.FetchTimeout.DurationValue()})
	inspector := archive.NewInspector(store, flags, fetcher, logger,
		cfg.Global.FetchTimeout.DurationValue(), cfg.Global.RescanFlagTTL.DurationValue())
	resolver := derive.NewResolver(inspector, cfg.Global.DefaultAuthor, cfg.Global.FallbackNaming, logger)
	listSvc := listing.NewService(store, flags, resolver, inspector, logger,
		cfg.Global.ListCacheTTL.DurationValue(), cfg.Global.EagerRebuild)

	if err := listSvc.Register(); err != nil {
		fmt.Fprintf(stdErr, "注册变更处理器失败: %v\n", err)
		return 1
	}

	fields := logging.BaseFields("startup", opts.configPath)
	fields["listen_port"] = cfg.Global.ListenPort
	fields["fallback_naming"] = cfg.Global.FallbackNaming
	fields["eager_rebuild"] = cfg.Global.EagerRebuild
	fields["version"] = version.Full()
	logger.WithFields(fields).Info("配置加载完成")

	if err := startHTTPServer(cfg, listSvc, inspector, logger); err != nil {
		fmt.Fprintf(stdErr, "HTTP 服务启动失败: %v\n", err)
		return 1
	}
	return 0
}

// parseCLIFlags 解析 CLI 参数，并结合环境变量计算最终的配置路径。
func parseCLIFlags(args []string) (cliOptions, error) {
	fs := flag.NewFlagSet("mod-hub", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		configFlag string
		checkOnly  bool
		showVer    bool
	)

	fs.StringVar(&configFlag, "config", "", "配置文件路径（默认 ./config.toml，可被 MOD_HUB_CONFIG 覆盖）")
	fs.BoolVar(&checkOnly, "check-config", false, "仅校验配置后退出")
	fs.BoolVar(&showVer, "version", false, "显示版本信息")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, fmt.Errorf("解析参数失败: %w", err)
	}

	path := os.Getenv("MOD_HUB_CONFIG")
	if configFlag != "" {
		path = configFlag
	}
	if path == "" {
		path = "config.toml"
	}

	return cliOptions{
		configPath:  path,
		checkOnly:   checkOnly,
		showVersion: showVer,
	}, nil
}

func startHTTPServer(cfg *config.Config, listSvc *listing.Service, inspector *archive.Inspector, logger *logrus.Logger) error {
	port := cfg.Global.ListenPort
	app, err := server.NewApp(server.AppOptions{
		Logger:     logger,
		Listing:    listSvc,
		ListenPort: port,
	})
	if err != nil {
		return err
	}
	routes.RegisterDiagnosticsRoutes(app, inspector)

	logger.WithFields(logrus.Fields{
		"action": "listen",
		"port":   port,
	}).Info("Fiber 服务启动")

	return app.Listen(fmt.Sprintf(":%d", port))
}

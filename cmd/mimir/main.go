package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mimir/internal/config"
	"mimir/internal/logger"
	"mimir/internal/model"
	"mimir/internal/server"
	"mimir/internal/store"
)

var (
	port       = flag.Int("port", 0, "服务端口 (config.toml 优先；仅当未显式配置 port 时生效)")
	devMode    = flag.Bool("dev", false, "开发模式")
	dataDir    = flag.String("dataDir", "", "数据目录 (覆盖配置文件)")
	seedFile   = flag.String("seed", "", "主数据 TOML 文件 (启动时导入)")
	exportFile = flag.String("export", "", "生成培训需求报表到指定 xlsx 文件后退出")
	reportDate = flag.String("date", "", "报表目标日期 YYYY-MM-DD (默认今天)")
)

func main() {
	flag.Parse()

	fmt.Println("==========================================")
	fmt.Println("  Mimir - 培训合规到期报表")
	fmt.Println("==========================================")

	// 加载配置
	cfg, info, err := config.LoadConfigWithInfo()
	if err != nil {
		log.Printf("加载配置失败，使用默认配置: %v", err)
		cfg = config.DefaultConfig()
		info = config.LoadConfigInfo{}
	}

	// 命令行参数覆盖配置
	if *port > 0 && !info.PortSpecified {
		cfg.Server.Port = *port
	}
	if *devMode {
		cfg.Server.DevMode = true
	}
	if *dataDir != "" {
		cfg.Data.DataDir = *dataDir
	}
	if *seedFile != "" {
		cfg.Data.SeedFile = *seedFile
	}

	// 确保数据目录存在
	dir, err := config.EnsureDataDir(cfg)
	if err != nil {
		log.Printf("创建数据目录失败: %v", err)
	} else {
		fmt.Printf("数据目录: %s\n", dir)
	}

	appLogger := logger.New(cfg.Log)

	catalog, err := server.OpenCatalog(cfg)
	if err != nil {
		log.Fatalf("打开数据库失败: %v", err)
	}

	if cfg.Data.SeedFile != "" {
		if err := loadSeed(catalog, cfg.Data.SeedFile); err != nil {
			_ = catalog.Close()
			log.Fatalf("导入主数据失败: %v", err)
		}
	}

	srv, err := server.NewServer(cfg, catalog, appLogger)
	if err != nil {
		_ = catalog.Close()
		log.Fatalf("创建服务失败: %v", err)
	}

	if *exportFile != "" {
		err := exportOnce(srv, *exportFile, *reportDate)
		_ = srv.Shutdown(context.Background())
		if err != nil {
			log.Fatalf("导出失败: %v", err)
		}
		fmt.Printf("报表已写入: %s\n", *exportFile)
		return
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)

	go func() {
		fmt.Printf("服务启动中，监听端口 %d ...\n", cfg.Server.Port)
		if err := srv.Run(addr); err != nil {
			log.Fatalf("服务启动失败: %v", err)
		}
	}()

	fmt.Printf("请访问 http://localhost:%d/api/status\n", cfg.Server.Port)
	fmt.Println("\n按 Ctrl+C 停止服务...")

	// 等待信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\n正在关闭服务...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("关闭服务失败: %v", err)
	}
}

func loadSeed(catalog server.Catalog, path string) error {
	s, ok := catalog.(*store.Store)
	if !ok {
		return fmt.Errorf("seed files require a database driver, got %T", catalog)
	}
	res, err := s.LoadSeedFile(context.Background(), path)
	if err != nil {
		return err
	}
	fmt.Printf("已导入主数据: %d 部门, %d 培训, %d 场次, %d 员工\n",
		res.Departments, res.Trainings, res.Sessions, res.Employees)
	return nil
}

func exportOnce(srv *server.Server, path, date string) error {
	reports := srv.Reports()
	target := reports.Today()
	if date != "" {
		d, err := model.ParseDate(date)
		if err != nil {
			return err
		}
		target = d
	}

	data, err := reports.GenerateDepartmentTrainingReport(context.Background(), target)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

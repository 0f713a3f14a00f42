package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	enet "github.com/dep2p/go-enet"
	"github.com/dep2p/go-enet/pkg/lib/log"
	"github.com/dep2p/go-enet/pkg/luaenet"
)

// runFlags run 子命令参数
type runFlags struct {
	eval        string
	metricsAddr string
}

func newRunCmd(global *globalFlags) *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run [script.lua] [args...]",
		Short: "Run a Lua script with the enet module available",
		Long: `Run a Lua script. Extra arguments are exposed to the script as the
global table "arg" (arg[0] is the script path). With --eval the chunk is
taken from the command line instead of a file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.eval == "" && len(args) == 0 {
				return errors.New("需要脚本路径或 --eval")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runScript(ctx, global, flags, args)
		},
	}
	cmd.Flags().StringVarP(&flags.eval, "eval", "e", "", "执行给定的 Lua 代码")
	cmd.Flags().StringVar(&flags.metricsAddr, "metrics-addr", "", "Prometheus 指标监听地址，如 127.0.0.1:9090")
	return cmd
}

// runScript 组装 Stack，在新的 Lua 状态中执行脚本
func runScript(ctx context.Context, global *globalFlags, flags *runFlags, args []string) (err error) {
	opts, err := buildOptions(global)
	if err != nil {
		return err
	}

	var reg *prometheus.Registry
	if flags.metricsAddr != "" {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector())
		opts = append(opts, enet.WithRegisterer(reg))
	}

	stack, err := enet.NewStack(ctx, opts...)
	if err != nil {
		return fmt.Errorf("创建 Stack 失败: %w", err)
	}
	defer func() {
		if cerr := stack.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if reg != nil {
		srv, err := serveMetrics(flags.metricsAddr, reg)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	L := lua.NewState()
	defer L.Close()
	L.SetContext(ctx)
	luaenet.Preload(L, stack)

	if flags.eval != "" {
		setArgs(L, "-e", args)
		logger.Debug("执行代码块", "len", len(flags.eval))
		return L.DoString(flags.eval)
	}

	setArgs(L, args[0], args[1:])
	logger.Debug("执行脚本", "path", args[0])
	return L.DoFile(args[0])
}

// buildOptions 由全局参数构造 Stack 选项
func buildOptions(global *globalFlags) ([]enet.Option, error) {
	var opts []enet.Option

	if global.configFile != "" {
		opts = append(opts, enet.WithConfigFile(global.configFile))
	}

	if global.verbose {
		log.SetLevel(slog.LevelDebug)
		zl, err := zap.NewDevelopment()
		if err != nil {
			return nil, fmt.Errorf("创建 zap 日志失败: %w", err)
		}
		opts = append(opts, enet.WithFxLogger(zl))
	}
	return opts, nil
}

// setArgs 设置全局 arg 表，与 lua 独立解释器一致
func setArgs(L *lua.LState, script string, args []string) {
	tbl := L.NewTable()
	tbl.RawSetInt(0, lua.LString(script))
	for i, a := range args {
		tbl.RawSetInt(i+1, lua.LString(a))
	}
	L.SetGlobal("arg", tbl)
}

// serveMetrics 在 addr 上提供 /metrics
func serveMetrics(addr string, reg *prometheus.Registry) (*http.Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("监听指标地址失败: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("指标服务退出", "err", err)
		}
	}()
	logger.Info("指标服务已启动", "addr", ln.Addr().String())
	return srv, nil
}

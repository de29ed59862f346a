// Command shopctl 手机商城的终端客户端：登录、管理购物车与订单、导出发票和报表、
// 监控后台概览，并可启动本地模拟后端
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/common-nighthawk/go-figure"

	"github.com/kochabx/phoneshop/config"
	"github.com/kochabx/phoneshop/errors"
)

const appName = "shopctl"

type command struct {
	usage string
	// 无需客户端环境的命令
	bare bool
	run  func(ctx context.Context, e *env, args []string) error
}

var commands = map[string]command{
	"login":     {usage: "login -email <email> [-password <pw>]", run: runLogin},
	"logout":    {usage: "logout", run: runLogout},
	"whoami":    {usage: "whoami", run: runWhoami},
	"verify":    {usage: "verify <path>", run: runVerify},
	"cart":      {usage: "cart {list|add <id> [qty]|remove <id>|set <id> <qty>|clear}", run: runCart},
	"orders":    {usage: "orders {list|get <id>|create|cancel <id>|status <id> <STATUS>}", run: runOrders},
	"invoice":   {usage: "invoice <orderId>", run: runInvoice},
	"inventory": {usage: "inventory adjust <file.json>", run: runInventory},
	"report":    {usage: "report {revenue|profit|top|status|lowstock|category|export} [-days n]", run: runReport},
	"watch":     {usage: "watch [-schedule spec]", run: runWatch},
	"chat":      {usage: "chat", run: runChat},
	"mock":      {usage: "mock [-addr :8080]", bare: true, run: runMock},
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", appName, describe(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, in io.Reader, out io.Writer) error {
	fs := flag.NewFlagSet(appName, flag.ContinueOnError)
	fs.SetOutput(out)
	cfgPath := fs.String("config", "", "config file (default ./shopctl.yaml or ~/.shopctl/shopctl.yaml)")
	baseURL := fs.String("base-url", "", "backend address, overrides client.base_url")
	quiet := fs.Bool("q", false, "no banner")
	fs.Usage = func() { usage(out, !*quiet) }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if fs.NArg() == 0 {
		usage(out, !*quiet)
		return nil
	}

	name := fs.Arg(0)
	cmd, ok := commands[name]
	if !ok {
		usage(out, false)
		return fmt.Errorf("unknown command %q", name)
	}

	cfg, _, err := config.Load(*cfgPath)
	if err != nil {
		return err
	}
	if *baseURL != "" {
		cfg.Client.BaseURL = *baseURL
	}

	if cmd.bare {
		e, err := newBareEnv(cfg, in, out)
		if err != nil {
			return err
		}
		return cmd.run(ctx, e, fs.Args()[1:])
	}

	e, err := newEnv(ctx, cfg, in, out)
	if err != nil {
		return err
	}
	runErr := cmd.run(ctx, e, fs.Args()[1:])
	return errors.Join(runErr, e.close(context.WithoutCancel(ctx)))
}

func usage(out io.Writer, banner bool) {
	if banner {
		fmt.Fprintln(out, figure.NewFigure(appName, "cybermedium", true).String())
	}
	fmt.Fprintf(out, "usage: %s [-config file] [-base-url url] [-q] <command> [args]\n\ncommands:\n", appName)
	names := make([]string, 0, len(commands))
	for n := range commands {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintf(out, "  %s\n", commands[n].usage)
	}
}

// describe 优先返回后端提示而不是完整错误链
func describe(err error) string {
	var e *errors.Error
	if errors.As(err, &e) && e.Message != "" {
		return strings.TrimSpace(e.Message)
	}
	return err.Error()
}

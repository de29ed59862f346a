package main

import (
	"bufio"
	"context"
	"flag"
	"os"
	"strings"
	"time"

	"github.com/kochabx/phoneshop/api"
	"github.com/kochabx/phoneshop/errors"
	"github.com/kochabx/phoneshop/session"
)

// PasswordEnv 未指定 -password 时读取的环境变量
const PasswordEnv = "SHOPCTL_PASSWORD"

func runLogin(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(e.out)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "password, else $"+PasswordEnv+" or one line of stdin")
	if err := fs.Parse(args); err != nil {
		return err
	}

	pw := *password
	if pw == "" {
		pw = os.Getenv(PasswordEnv)
	}
	if pw == "" {
		line, err := bufio.NewReader(e.in).ReadString('\n')
		if err != nil && line == "" {
			return errors.Validation("password is required")
		}
		pw = strings.TrimRight(line, "\r\n")
	}

	u, err := e.session.Login(ctx, api.Credentials{Email: strings.TrimSpace(*email), Password: pw})
	if err != nil {
		return err
	}
	e.printf("Đăng nhập thành công: %s <%s> %v\n", u.FullName, u.Email, u.Roles)
	return nil
}

func runLogout(ctx context.Context, e *env, _ []string) error {
	if err := e.session.Logout(ctx); err != nil {
		return err
	}
	e.printf("Đăng xuất thành công\n")
	return nil
}

func runWhoami(ctx context.Context, e *env, _ []string) error {
	if err := e.session.Verify(ctx, "/profile"); err != nil {
		return err
	}
	u := e.session.User()
	if u == nil {
		return session.ErrNotSignedIn
	}

	e.printf("%s <%s>\n", u.FullName, u.Email)
	e.printf("  id:      %d\n", u.ID)
	e.printf("  roles:   %s\n", strings.Join(u.Roles, ", "))
	if u.ExpiresAt != nil {
		e.printf("  expires: %s (%s)\n", u.ExpiresAt.Local().Format(time.DateTime), time.Until(*u.ExpiresAt).Round(time.Second))
	}
	return nil
}

// runVerify 像页面加载一样为路由校验会话，并输出最终跳转位置
func runVerify(ctx context.Context, e *env, args []string) error {
	if len(args) != 1 {
		return errors.Validation("usage: verify <path>")
	}
	path := args[0]

	err := e.session.Verify(ctx, path)
	e.printf("route:  %s (public: %t)\n", path, e.session.Routes().IsPublic(path))
	e.printf("state:  %s\n", e.session.State())
	if u := e.session.User(); u != nil {
		e.printf("user:   %s\n", u.Email)
	}
	for _, to := range e.navigate {
		e.printf("goto:   %s\n", to)
	}
	if err != nil && e.session.State() == session.Expired {
		e.printf("reason: %s\n", e.session.Reason())
		return nil
	}
	return err
}

package writer

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Console 创建控制台输出 writer，输出到 stderr 以免污染命令输出
func Console() zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:         os.Stderr,
		TimeFormat:  time.DateTime,
		FormatLevel: formatLevel,
	}
}

func formatLevel(i any) string {
	return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
}

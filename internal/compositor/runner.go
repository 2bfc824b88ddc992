package compositor

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/sirupsen/logrus"
)

// CommandRunner 执行外部命令
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) error
}

// ExecRunner 基于 os/exec，失败时附带 stderr 末尾内容
type ExecRunner struct {
	log *logrus.Entry
}

func NewExecRunner() *ExecRunner {
	return &ExecRunner{log: logrus.WithField("component", "ffmpeg")}
}

func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	r.log.Debugf("%s %s", name, strings.Join(args, " "))
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, tail(stderr.String(), 500))
	}
	return nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}

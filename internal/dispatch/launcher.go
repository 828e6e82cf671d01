package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"syscall"
	"time"
)

// Process — запущенный внешний процесс образца.
type Process interface {
	// Pid возвращает идентификатор процесса ОС.
	Pid() int

	// Wait ждёт завершения и возвращает код выхода.
	// err != nil только если код выхода получить не удалось.
	Wait() (exitCode int, err error)
}

// Launcher запускает процесс.
//
// Отмена ctx должна завершать процесс.
type Launcher interface {
	Launch(ctx context.Context, args []string, dir string, log io.Writer) (Process, error)
}

// ExecLauncher запускает процессы через os/exec.
type ExecLauncher struct {
	// WaitDelay — сколько ждать после SIGTERM перед SIGKILL (default: 30s).
	WaitDelay time.Duration
}

// Launch стартует процесс с stdout и stderr в log и рабочей директорией dir.
func (l *ExecLauncher) Launch(ctx context.Context, args []string, dir string, log io.Writer) (Process, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: empty command", ErrLaunch)
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = dir
	cmd.Stdout = log
	cmd.Stderr = log

	// Инструменты сами порождают дочерние процессы: сначала мягкая остановка
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = l.WaitDelay
	if cmd.WaitDelay <= 0 {
		cmd.WaitDelay = 30 * time.Second
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLaunch, err)
	}
	return &execProcess{cmd: cmd}, nil
}

type execProcess struct {
	cmd *exec.Cmd
}

func (p *execProcess) Pid() int {
	return p.cmd.Process.Pid
}

func (p *execProcess) Wait() (int, error) {
	err := p.cmd.Wait()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if code := exitErr.ExitCode(); code >= 0 {
			return code, nil
		}
		// Убит сигналом
		return -1, nil
	}
	return -1, err
}

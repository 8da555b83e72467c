package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/odyssey-erp/coopfinance/cmd/coopctl/cli"
	"github.com/odyssey-erp/coopfinance/internal/shared"
	"github.com/odyssey-erp/coopfinance/jobs"
)

// Globals are flags shared by every command.
type Globals struct {
	RedisAddr string        `help:"Redis address of the job queue." env:"REDIS_ADDR" default:"127.0.0.1:6379"`
	Timeout   time.Duration `help:"Deadline for queue operations." default:"10s"`
}

var stdout io.Writer = os.Stdout

func (g *Globals) jobs() (*cli.JobsCLI, error) {
	return cli.NewJobsCLI(g.RedisAddr)
}

func (g *Globals) deadline() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), g.Timeout)
}

func (g *Globals) print(v any) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Commands lists the coopctl subcommands.
type Commands struct {
	Token     TokenCmd     `cmd:"" help:"Issue a bearer token for the ERP API."`
	Sync      SyncCmd      `cmd:"" help:"Enqueue an ERP sync for one tenant."`
	SyncAll   SyncAllCmd   `cmd:"" name:"sync-all" help:"Enqueue an ERP sync for every configured tenant."`
	Queue     QueueCmd     `cmd:"" help:"Show default queue statistics."`
	Scheduled ScheduledCmd `cmd:"" help:"List scheduled tasks."`
}

type TokenCmd struct {
	Tenant  string        `help:"Tenant id carried in the token." required:""`
	Role    string        `help:"viewer or admin." default:"viewer" enum:"viewer,admin"`
	Subject string        `help:"Token subject." default:"coopctl"`
	TTL     time.Duration `help:"Token lifetime." default:"1h"`
	Secret  string        `help:"Signing secret." env:"JWT_SECRET" required:""`
}

func (cmd *TokenCmd) Run(g *Globals) error {
	token, err := cli.IssueToken(cmd.Secret, cmd.Tenant, cmd.Role, cmd.Subject, cmd.TTL)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, token)
	return err
}

type SyncCmd struct {
	Tenant string `help:"Tenant id." required:""`
	Year   int    `help:"Period year; defaults to the current month."`
	Month  int    `help:"Period month; defaults to the current month."`
}

func (cmd *SyncCmd) Run(g *Globals) error {
	period := shared.PeriodOf(time.Now())
	if cmd.Year != 0 || cmd.Month != 0 {
		p, err := shared.NewPeriod(cmd.Year, cmd.Month)
		if err != nil {
			return err
		}
		period = p
	}
	helper, err := g.jobs()
	if err != nil {
		return err
	}
	defer func() { _ = helper.Close() }()
	ctx, cancel := g.deadline()
	defer cancel()
	info, err := helper.TriggerSync(ctx, cmd.Tenant, period)
	if err != nil {
		return err
	}
	return g.print(map[string]string{"task_id": info.ID, "period": period.String()})
}

type SyncAllCmd struct{}

func (cmd *SyncAllCmd) Run(g *Globals) error {
	helper, err := g.jobs()
	if err != nil {
		return err
	}
	defer func() { _ = helper.Close() }()
	ctx, cancel := g.deadline()
	defer cancel()
	info, err := helper.Trigger(ctx, jobs.TaskERPSyncAll)
	if err != nil {
		return err
	}
	return g.print(map[string]string{"task_id": info.ID})
}

type QueueCmd struct{}

func (cmd *QueueCmd) Run(g *Globals) error {
	helper, err := g.jobs()
	if err != nil {
		return err
	}
	defer func() { _ = helper.Close() }()
	ctx, cancel := g.deadline()
	defer cancel()
	stats, err := helper.InspectQueue(ctx)
	if err != nil {
		return err
	}
	return g.print(stats)
}

type ScheduledCmd struct {
	Size int `help:"Page size." default:"10"`
}

func (cmd *ScheduledCmd) Run(g *Globals) error {
	helper, err := g.jobs()
	if err != nil {
		return err
	}
	defer func() { _ = helper.Close() }()
	ctx, cancel := g.deadline()
	defer cancel()
	tasks, err := helper.ListScheduled(ctx, cmd.Size)
	if err != nil {
		return err
	}
	type row struct {
		ID        string    `json:"id"`
		Type      string    `json:"type"`
		NextRunAt time.Time `json:"next_run_at"`
	}
	rows := make([]row, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, row{ID: t.ID, Type: t.Type, NextRunAt: t.NextProcessAt})
	}
	return g.print(rows)
}

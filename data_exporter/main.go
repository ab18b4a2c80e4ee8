package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/alecthomas/kong"
	"github.com/kataras/golog"
	"github.com/xor-shift/xoshiro/common"
	"github.com/xor-shift/xoshiro/dispense"
	"github.com/xor-shift/xoshiro/store"
	"github.com/xor-shift/xoshiro/util/rng"
)

var ErrNegativeCount = errors.New("count must not be negative")

type outputFlags struct {
	Out                string `name:"out" short:"o" default:"-" help:"File to output to (templated, - for stdout)"`
	Format             string `name:"format" short:"f" enum:"csv,json" default:"csv" help:"Data format"`
	ExportColumnTitles bool   `name:"export_column_titles" negatable:"" default:"true" help:"(applicable only to CSV outputs) whether to include column titles for CSV exports"`
}

type seedFlag struct {
	Seed string `name:"seed" short:"s" required:"" help:"64 hex digits of state, or a 64-bit integer expanded with splitmix64"`
}

func (s seedFlag) generator() (*rng.Xoshiro256PPState, error) {
	seed, err := common.ParseSeed(s.Seed)
	if err != nil {
		return nil, err
	}

	return rng.NewXoshiro256PP(seed), nil
}

type genCmd struct {
	seedFlag    `embed:""`
	outputFlags `embed:""`

	Count int `name:"count" short:"n" default:"10" help:"Number of values to generate"`
}

func (c *genCmd) Run() error {
	if c.Count < 0 {
		return fmt.Errorf("%w (got %d)", ErrNegativeCount, c.Count)
	}

	gen, err := c.generator()
	if err != nil {
		return err
	}

	t := &table{columns: []string{"Index", "Value", "Hex"}}
	values := make([]string, 0, c.Count)

	i := 0
	for v := range gen.Values() {
		if i == c.Count {
			break
		}

		hex := fmt.Sprintf("%016x", v)
		t.rows = append(t.rows, []string{strconv.Itoa(i), strconv.FormatUint(v, 10), hex})
		values = append(values, hex)
		i++
	}

	t.value = values

	return writeTable(c.Out, templateArguments{Seed: c.Seed}, c.Format, c.ExportColumnTitles, t)
}

type jumpCmd struct {
	seedFlag `embed:""`

	Long  bool `name:"long" short:"l" help:"Long-jump (2^192 steps) instead of jump (2^128 steps)"`
	Times int  `name:"times" short:"t" default:"1" help:"Number of jumps, one state printed per jump"`
}

func (c *jumpCmd) Run() error {
	gen, err := c.generator()
	if err != nil {
		return err
	}

	for i := 0; i < c.Times; i++ {
		if c.Long {
			gen.LongJump()
		} else {
			gen.Jump()
		}

		fmt.Println(gen.String())
	}

	return nil
}

type splitCmd struct {
	seedFlag    `embed:""`
	outputFlags `embed:""`

	Count int  `name:"count" short:"n" default:"4" help:"Number of streams"`
	Long  bool `name:"long" short:"l" help:"Split into long-jump regions"`
}

func (c *splitCmd) Run() error {
	seed, err := common.ParseSeed(c.Seed)
	if err != nil {
		return err
	}

	level := common.JumpLevelJump
	if c.Long {
		level = common.JumpLevelLong
	}

	d := dispense.New(seed, nil, 0)
	d.Start(1)

	streams, err := d.AllocateN(level, c.Count)
	d.Stop()

	if err != nil {
		return err
	}

	return writeTable(c.Out, templateArguments{Seed: c.Seed}, c.Format, c.ExportColumnTitles, streamTable(streams))
}

func streamTable(streams []common.Stream) *table {
	t := &table{
		columns: []string{"Session", "Index", "Level", "State"},
		value:   streams,
	}

	for _, stream := range streams {
		t.rows = append(t.rows, []string{
			strconv.FormatUint(uint64(stream.Session), 10),
			strconv.FormatUint(stream.Index, 10),
			string(stream.Level),
			stream.State,
		})
	}

	return t
}

type exportCmd struct {
	Session            uint   `name:"session" short:"S" required:"" help:"session number to export"`
	Out                string `name:"out" short:"o" default:"session_{{.SessionNo}}.csv" help:"File to output to (templated, - for stdout)"`
	Format             string `name:"format" short:"f" enum:"csv,json" default:"csv" help:"Data format"`
	ExportColumnTitles bool   `name:"export_column_titles" negatable:"" default:"true" help:"(applicable only to CSV outputs) whether to include column titles for CSV exports"`
	Env                string `name:"env" default:".env" help:"dotenv file with the DB_* settings"`
}

func (c *exportCmd) Run() error {
	config, err := common.LoadConfig(c.Env)
	if err != nil {
		return err
	}

	db, err := store.Open(config.MySQL())
	if err != nil {
		return err
	}
	defer db.Close()

	rows, err := db.Streams(context.Background(), c.Session)
	if err != nil {
		return fmt.Errorf("failed to fetch streams for session %d: %w", c.Session, err)
	}

	t := &table{
		columns: []string{"Session", "Index", "Level", "State", "Allocated"},
		value:   rows,
	}

	for _, row := range rows {
		t.rows = append(t.rows, []string{
			strconv.FormatUint(uint64(row.Session), 10),
			strconv.FormatUint(row.Index, 10),
			string(row.Level),
			row.State,
			strconv.FormatInt(row.AllocatedAt.Unix(), 10),
		})
	}

	golog.Infof("exporting %d streams of session %d", len(rows), c.Session)

	return writeTable(c.Out, templateArguments{SessionNo: c.Session}, c.Format, c.ExportColumnTitles, t)
}

type cli struct {
	LogLevel string `name:"log-level" default:"warn" help:"Log level"`

	Gen    genCmd    `cmd:"" help:"Print values from a seed"`
	Jump   jumpCmd   `cmd:"" help:"Print the state after jumping"`
	Split  splitCmd  `cmd:"" help:"Derive non-overlapping stream states from a seed"`
	Export exportCmd `cmd:"" help:"Export the streams of a stored session"`
}

func main() {
	args := cli{}

	ctx := kong.Parse(&args,
		kong.Name("data_exporter"),
		kong.Description("Generates, splits and exports xoshiro256++ streams."))

	golog.SetLevel(args.LogLevel)

	if err := ctx.Run(); err != nil {
		golog.Fatal(err)
	}
}

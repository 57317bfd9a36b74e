package align

import (
	"fmt"
	"log"
	"runtime"

	"github.com/jwaldrip/odin/cli"

	"github.com/malabz/rama/anchor"
	"github.com/malabz/rama/pool"
	"github.com/malabz/rama/seq"
	"github.com/malabz/rama/utils"
)

// Align runs the whole pipeline: index or load, search the anchor chain,
// align the gap intervals and write every output file under the prefix.
func Align(c cli.Command) {
	gOpt, suc := utils.CheckGlobalArgs(c.Parent())
	if suc == false {
		log.Fatalf("[Align] check global Arguments error, opt: %v\n", gOpt)
	}
	cfgInfo := anchor.LoadCfg(gOpt)
	opt, suc := anchor.CheckSeqArgs(c, cfgInfo)
	if suc == false {
		log.Fatalf("[Align] check Arguments error, opt: %v\n", opt)
	}
	opt.ArgsOpt = gOpt
	var ok bool
	opt.MaxDepth, ok = c.Flag("depth").Get().(int)
	if !ok {
		log.Fatalf("[Align] args 'depth': %v set error\n", c.Flag("depth").String())
	}
	opt.Load = c.Flag("load").String()
	opt.Dot, ok = c.Flag("dot").Get().(bool)
	if !ok {
		log.Fatalf("[Align] args 'dot': %v set error\n", c.Flag("dot").String())
	}
	fmt.Printf("[Align] opt: %v\n", opt)
	runtime.GOMAXPROCS(opt.NumCPU)
	stop := anchor.StartProfile(gOpt)
	defer stop()

	data, err := seq.ReadDataPath(opt.Ref, opt.Query)
	if err != nil {
		log.Fatalf("[Align] read input sequences failed, err: %v\n", err)
	}
	pl := pool.New(opt.NumCPU)
	defer pl.Release()
	f := anchor.GetAnchorFinder(opt, data, pl)
	anchors := f.LaunchAnchorSearching(opt.Prefix)
	if opt.Dot {
		f.GraphvizAnchorTree(opt.Prefix + ".anchor.dot")
	}

	pa := NewPairAligner(cfgInfo, pl)
	if _, err = pa.AlignPairSeq(data, anchors, opt.Prefix); err != nil {
		log.Fatalf("[Align] align pair sequences failed, err: %v\n", err)
	}
}

package anchor

import (
	"fmt"
	"log"
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/jwaldrip/odin/cli"

	"github.com/malabz/rama/pool"
	"github.com/malabz/rama/seq"
	"github.com/malabz/rama/utils"
)

type Options struct {
	utils.ArgsOpt
	Ref           string
	Query         string
	MaxMatchCount int
	MaxDepth      int
	Load          string
	Save          string
	Dot           bool
}

// LoadCfg parses the config file named by the global arguments, falling back
// to the built-in penalty set when none is given.
func LoadCfg(gOpt utils.ArgsOpt) utils.CfgInfo {
	if gOpt.CfgFn == "" {
		return utils.DefaultCfg()
	}
	cfgInfo, err := utils.ParseCfg(gOpt.CfgFn)
	if err != nil {
		log.Fatalf("[LoadCfg] ParseCfg 'C': %v err: %v\n", gOpt.CfgFn, err)
	}
	return cfgInfo
}

// CheckSeqArgs reads the flags shared by every subcommand that takes the two
// input sequences. A zero max match count takes the config value.
func CheckSeqArgs(c cli.Command, cfgInfo utils.CfgInfo) (opt Options, suc bool) {
	opt.Ref = c.Flag("ref").String()
	opt.Query = c.Flag("query").String()
	if opt.Ref == "" || opt.Query == "" {
		log.Fatalf("[CheckSeqArgs] args 'ref' and 'query' must be set\n")
	}
	var ok bool
	opt.MaxMatchCount, ok = c.Flag("m").Get().(int)
	if !ok {
		log.Fatalf("[CheckSeqArgs] args 'm': %v set error\n", c.Flag("m").String())
	}
	if opt.MaxMatchCount == 0 {
		opt.MaxMatchCount = cfgInfo.MaxMatchCount
	}
	return opt, true
}

// StartProfile begins a CPU profile when the global cpuprofile flag is set
// and returns the stop function, a no-op otherwise.
func StartProfile(gOpt utils.ArgsOpt) func() {
	if gOpt.Cpuprofile == "" {
		return func() {}
	}
	fp, err := os.Create(gOpt.Cpuprofile)
	if err != nil {
		log.Fatalf("[StartProfile] open cpuprofile file: %v failed\n", gOpt.Cpuprofile)
	}
	pprof.StartCPUProfile(fp)
	return func() {
		pprof.StopCPUProfile()
		fp.Close()
	}
}

// Index builds the suffix array index over the two sequences and saves it to
// the cache file for later anchor searches.
func Index(c cli.Command) {
	gOpt, suc := utils.CheckGlobalArgs(c.Parent())
	if suc == false {
		log.Fatalf("[Index] check global Arguments error, opt: %v\n", gOpt)
	}
	cfgInfo := LoadCfg(gOpt)
	opt, suc := CheckSeqArgs(c, cfgInfo)
	if suc == false {
		log.Fatalf("[Index] check Arguments error, opt: %v\n", opt)
	}
	opt.ArgsOpt = gOpt
	opt.Save = c.Flag("save").String()
	if opt.Save == "" {
		opt.Save = opt.Prefix + ".rama"
	}
	fmt.Printf("[Index] opt: %v\n", opt)
	runtime.GOMAXPROCS(opt.NumCPU)
	stop := StartProfile(gOpt)
	defer stop()

	data, err := seq.ReadDataPath(opt.Ref, opt.Query)
	if err != nil {
		log.Fatalf("[Index] read input sequences failed, err: %v\n", err)
	}
	pl := pool.New(opt.NumCPU)
	defer pl.Release()
	f, err := NewAnchorFinder(data, pl, opt.MaxMatchCount, opt.MaxDepth)
	if err != nil {
		log.Fatalf("[Index] build anchor finder failed, err: %v\n", err)
	}
	if err = f.SaveCache(opt.Save); err != nil {
		log.Fatalf("[Index] save cache file: %s failed, err: %v\n", opt.Save, err)
	}
	fmt.Printf("[Index] %s has been saved\n", opt.Save)
}

// Search runs the recursive anchor search and writes the anchor CSV files,
// plus the recursion tree as a dot graph when asked.
func Search(c cli.Command) {
	gOpt, suc := utils.CheckGlobalArgs(c.Parent())
	if suc == false {
		log.Fatalf("[Search] check global Arguments error, opt: %v\n", gOpt)
	}
	cfgInfo := LoadCfg(gOpt)
	opt, suc := CheckSeqArgs(c, cfgInfo)
	if suc == false {
		log.Fatalf("[Search] check Arguments error, opt: %v\n", opt)
	}
	opt.ArgsOpt = gOpt
	var ok bool
	opt.MaxDepth, ok = c.Flag("depth").Get().(int)
	if !ok {
		log.Fatalf("[Search] args 'depth': %v set error\n", c.Flag("depth").String())
	}
	opt.Load = c.Flag("load").String()
	opt.Dot, ok = c.Flag("dot").Get().(bool)
	if !ok {
		log.Fatalf("[Search] args 'dot': %v set error\n", c.Flag("dot").String())
	}
	fmt.Printf("[Search] opt: %v\n", opt)
	runtime.GOMAXPROCS(opt.NumCPU)
	stop := StartProfile(gOpt)
	defer stop()

	data, err := seq.ReadDataPath(opt.Ref, opt.Query)
	if err != nil {
		log.Fatalf("[Search] read input sequences failed, err: %v\n", err)
	}
	pl := pool.New(opt.NumCPU)
	defer pl.Release()
	f := GetAnchorFinder(opt, data, pl)
	f.LaunchAnchorSearching(opt.Prefix)
	if opt.Dot {
		f.GraphvizAnchorTree(opt.Prefix + ".anchor.dot")
	}
}

// GetAnchorFinder loads the finder from the cache file when one is given and
// still valid, and rebuilds the index from scratch otherwise.
func GetAnchorFinder(opt Options, data []seq.SequenceInfo, pl *pool.Pool) *AnchorFinder {
	if opt.Load != "" {
		f, err := LoadAnchorFinder(opt.Load, data, pl, opt.MaxMatchCount, opt.MaxDepth)
		if err == nil {
			return f
		}
		fmt.Printf("[GetAnchorFinder] load cache %s failed: %v, rebuilding the index\n", opt.Load, err)
	}
	f, err := NewAnchorFinder(data, pl, opt.MaxMatchCount, opt.MaxDepth)
	if err != nil {
		log.Fatalf("[GetAnchorFinder] build anchor finder failed, err: %v\n", err)
	}
	return f
}

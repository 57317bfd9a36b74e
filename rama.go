package main

import (
	"log"
	"net/http"
	_ "net/http/pprof"

	"github.com/jwaldrip/odin/cli"

	"github.com/malabz/rama/align"
	"github.com/malabz/rama/anchor"
)

var app = cli.New("1.0.0", "Rare Match Aligner for long pairwise sequence alignment", func(c cli.Command) {})

func init() {
	go func() {
		log.Println(http.ListenAndServe("localhost:6090", nil))
	}()
	app.DefineStringFlag("C", "", "configure file")
	app.DefineStringFlag("cpuprofile", "", "write cpu profile to file")
	app.DefineStringFlag("p", "rama", "prefix of the output file")
	app.DefineIntFlag("t", 1, "number of CPU used")
	index := app.DefineSubCommand("index", "build the suffix array index and save it to a cache file", anchor.Index)
	{
		index.DefineStringFlag("ref", "", "reference FASTA file")
		index.DefineStringFlag("query", "", "query FASTA file")
		index.DefineIntFlag("m", 0, "max match count of a rare match, 0 takes the config value")
		index.DefineStringFlag("save", "", "index cache file name, default <prefix>.rama")
	}
	search := app.DefineSubCommand("anchor", "search the rare match anchor chain", anchor.Search)
	{
		search.DefineStringFlag("ref", "", "reference FASTA file")
		search.DefineStringFlag("query", "", "query FASTA file")
		search.DefineIntFlag("m", 0, "max match count of a rare match, 0 takes the config value")
		search.DefineIntFlag("depth", 0, "max recursion depth, 0 for unlimited")
		search.DefineStringFlag("load", "", "load the index from a cache file")
		search.DefineBoolFlag("dot", false, "output the anchor recursion tree as a dot graph")
	}
	alignCmd := app.DefineSubCommand("align", "search anchors and align the gap intervals between them", align.Align)
	{
		alignCmd.DefineStringFlag("ref", "", "reference FASTA file")
		alignCmd.DefineStringFlag("query", "", "query FASTA file")
		alignCmd.DefineIntFlag("m", 0, "max match count of a rare match, 0 takes the config value")
		alignCmd.DefineIntFlag("depth", 0, "max recursion depth, 0 for unlimited")
		alignCmd.DefineStringFlag("load", "", "load the index from a cache file")
		alignCmd.DefineBoolFlag("dot", false, "output the anchor recursion tree as a dot graph")
	}
}

func main() {
	app.Start()
}

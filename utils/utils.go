package utils

import (
	"bufio"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"unsafe"

	"github.com/jwaldrip/odin/cli"
	"github.com/pkg/errors"
)

// Error kinds surfaced by the core. Callers wrap them with context using
// errors.Wrapf and test with errors.Is/Cause.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrAllocation   = errors.New("allocation failure")
	ErrCorruptCache = errors.New("corrupt cache")
	ErrInternal     = errors.New("internal error")
)

type ArgsOpt struct {
	Prefix     string
	NumCPU     int
	CfgFn      string
	Cpuprofile string
}

// return global arguments and check if successed
func CheckGlobalArgs(c cli.Command) (opt ArgsOpt, succ bool) {
	opt.Prefix = c.Flag("p").String()
	if opt.Prefix == "" {
		log.Fatalf("[CheckGlobalArgs] args 'p' not set\n")
	}
	opt.CfgFn = c.Flag("C").String()
	opt.Cpuprofile = c.Flag("cpuprofile").String()

	var ok bool
	opt.NumCPU, ok = c.Flag("t").Get().(int)
	if !ok {
		log.Fatalf("[CheckGlobalArgs] args 't': %v set error\n", c.Flag("t").String())
	}
	return opt, true
}

// CfgInfo carries the scoring and search parameters read from the config file.
type CfgInfo struct {
	Match         int
	Mismatch      int
	GapOpen1      int
	GapExtension1 int
	GapOpen2      int
	GapExtension2 int
	MaxMatchCount int
}

// DefaultCfg returns the penalty set used when no config file is given.
func DefaultCfg() (cfgInfo CfgInfo) {
	cfgInfo.Match = 0
	cfgInfo.Mismatch = 3
	cfgInfo.GapOpen1 = 4
	cfgInfo.GapExtension1 = 2
	cfgInfo.GapOpen2 = 12
	cfgInfo.GapExtension2 = 1
	cfgInfo.MaxMatchCount = 100
	return cfgInfo
}

func ParseCfg(fn string) (cfgInfo CfgInfo, e error) {
	cfgInfo = DefaultCfg()
	var inFile *os.File
	var err error
	if inFile, err = os.Open(fn); err != nil {
		log.Fatal(err)
	}
	defer inFile.Close()
	reader := bufio.NewReader(inFile)
	eof := false
	for !eof {
		var line string
		line, err = reader.ReadString('\n')
		if err == io.EOF {
			err = nil
			eof = true
		} else if err != nil {
			log.Fatal(err)
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		var v int
		switch fields[0] {
		case "[align_setting]":
		case "match":
			v, err = strconv.Atoi(fields[2])
			cfgInfo.Match = v
		case "mismatch":
			v, err = strconv.Atoi(fields[2])
			cfgInfo.Mismatch = v
		case "gap_open1":
			v, err = strconv.Atoi(fields[2])
			cfgInfo.GapOpen1 = v
		case "gap_extension1":
			v, err = strconv.Atoi(fields[2])
			cfgInfo.GapExtension1 = v
		case "gap_open2":
			v, err = strconv.Atoi(fields[2])
			cfgInfo.GapOpen2 = v
		case "gap_extension2":
			v, err = strconv.Atoi(fields[2])
			cfgInfo.GapExtension2 = v
		case "max_match_count":
			v, err = strconv.Atoi(fields[2])
			cfgInfo.MaxMatchCount = v
		default:
			if fields[0][0] != '#' && fields[0][0] != ';' {
				log.Fatalf("noknown line: %s", line)
			}
		}
		if err != nil {
			e = err
			return
		}
	}

	return
}

func AbsInt(a int) int {
	if a < 0 {
		return -a
	} else {
		return a
	}
}

func MaxInt(a, b int) int {
	if a > b {
		return a
	} else {
		return b
	}
}

func MinInt(a, b int) int {
	if a > b {
		return b
	} else {
		return a
	}
}

func MinFloat64(a, b float64) float64 {
	if a > b {
		return b
	} else {
		return a
	}
}

func ByteArrInt(id []byte) (d int, err error) {
	for _, c := range id {
		if c < '0' || c > '9' {
			err = errors.New("can't convert to digit...")
			return d, err
		}
		d = d*10 + int(c-'0')
	}
	return d, nil
}

func Bytes2String(b []byte) string {
	return *(*string)(unsafe.Pointer(&b))
}

func BytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	return Bytes2String(a) == Bytes2String(b)
}

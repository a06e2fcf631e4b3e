package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/golang/glog"
	"github.com/spf13/pflag"

	"github.com/robotalks/lstrelay/pkg/cli/sh"
	"github.com/robotalks/lstrelay/pkg/config"
)

var (
	evalOnly   bool
	outputJSON bool
)

func init() {
	config.SetupFlags(pflag.CommandLine)
	pflag.BoolVarP(&evalOnly, "eval", "e", evalOnly, "Evaluation only, no interactive shell.")
	pflag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
	pflag.CommandLine.AddGoFlagSet(flag.CommandLine)
}

func main() {
	pflag.Parse()
	flag.CommandLine.Parse(nil)
	defer glog.Flush()

	s := sh.New(config.NewConfig()).WithAutoConnect(true)
	s.Interactive = !evalOnly
	s.OutputJSON = outputJSON
	if err := s.Run(pflag.Args()...); err != nil {
		fmt.Fprintln(os.Stderr, err)
		glog.Flush()
		os.Exit(1)
	}
}

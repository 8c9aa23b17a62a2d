// mkopcodeh numbers the VDBE opcodes declared in vdbe.c and writes opcodes.h.
//
// Usage:
//
//	cat parse.h vdbe.c | mkopcodeh > opcodes.h
//	mkopcodeh parse.h vdbe.c -o opcodes.h
package main

import (
	"context"
	"fmt"
	"os"

	log "github.com/colorfulnotion/opcodeh/log"
)

var (
	Version = "dev"
	Commit  = "none"
)

func main() {
	if err := log.InitLogger("info"); err != nil {
		fmt.Fprintln(os.Stderr, "mkopcodeh:", err)
		os.Exit(1)
	}
	o := &options{}
	rootCmd := newRootCmd(o)
	err := rootCmd.Execute()
	if ferr := o.flush(context.Background()); ferr != nil {
		log.Warn(log.CLIMonitoring, "trace flush failed", "err", ferr)
	}
	if err != nil {
		log.Error(log.CLIMonitoring, "mkopcodeh failed", failureAttrs(err)...)
		os.Exit(1)
	}
}

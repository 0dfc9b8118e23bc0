// Command grib1index builds and inspects GRIB1 collection indexes.
package main

import (
	"flag"

	"github.com/golang/glog"
)

func main() {
	root := newRootCmd()
	root.PersistentFlags().AddGoFlagSet(flag.CommandLine)
	if err := root.Execute(); err != nil {
		glog.Exitf("got fatal error: %v", err)
	}
	glog.Flush()
}

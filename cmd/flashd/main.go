package main

import (
	"context"
	"flag"
	"net"
	"os"
	"strings"

	"github.com/golang/glog"

	"github.com/robotalks/flash.go/pkg/flash"
	"github.com/robotalks/flash.go/pkg/flash/store"
	"github.com/robotalks/flash.go/pkg/l0/comm"
	"github.com/robotalks/flash.go/pkg/run"
	"github.com/robotalks/flash.go/pkg/wear"
)

//go-build: CGO_ENABLED=0

var (
	listenAddr   = ":7070"
	imagePath    = "flash.img"
	profilePath  string
	telemetryURL string
)

func init() {
	if val := os.Getenv("FLASH_LISTEN"); val != "" {
		listenAddr = val
	}
	if val := os.Getenv("FLASH_IMAGE"); val != "" {
		imagePath = val
	}
	if val := os.Getenv("FLASH_PROFILE"); val != "" {
		profilePath = val
	}
	if val := os.Getenv("FLASH_TELEMETRY_URL"); val != "" {
		telemetryURL = val
	}
	flag.StringVar(&listenAddr, "listen", listenAddr, "Listen address (unix:PATH or HOST:PORT).")
	flag.StringVar(&imagePath, "image", imagePath, "Flash image file.")
	flag.StringVar(&profilePath, "profile", profilePath, "Device profile YAML file.")
	flag.StringVar(&telemetryURL, "telemetry", telemetryURL, "MQTT URL for wear telemetry.")
}

func main() {
	flag.Parse()

	prof := flash.DefaultProfile
	if profilePath != "" {
		p, err := flash.LoadProfile(profilePath)
		if err != nil {
			glog.Exitf("load profile: %v", err)
		}
		prof = *p
	}
	dev, err := flash.OpenImage(imagePath, prof.Geometry())
	if err != nil {
		glog.Exitf("open image %q: %v", imagePath, err)
	}
	st := store.New(dev)

	var reporter *wear.Reporter
	if telemetryURL != "" {
		if reporter, err = wear.NewReporter(telemetryURL); err != nil {
			glog.Exitf("telemetry %q: %v", telemetryURL, err)
		}
		defer reporter.Close()
	}

	network, target := "tcp", listenAddr
	if strings.HasPrefix(listenAddr, "unix:") {
		network, target = "unix", listenAddr[len("unix:"):]
	}
	ln, err := net.Listen(network, target)
	if err != nil {
		glog.Exitf("listen %q: %v", listenAddr, err)
	}
	glog.Infof("serving %q (%s profile, %d sectors of %d bytes) on %s",
		imagePath, prof.Name, st.Sectors(), st.SectorSize(), listenAddr)

	err = run.NewRunner().HandleSignals().Go(run.RunFunc(func(ctx context.Context) error {
		return serve(ctx, ln, st, reporter)
	})).Wait()
	if e := dev.Close(); err == nil {
		err = e
	}
	if err != nil {
		glog.Exit(err)
	}
}

// serve accepts one session at a time: the store is a single
// resource, like the hardware it fronts.
func serve(ctx context.Context, ln net.Listener, st *store.Store, reporter *wear.Reporter) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				return err
			}
		}
		glog.Infof("session from %s", conn.RemoteAddr())
		svc := comm.NewService(comm.NewLink(conn), st)
		if reporter != nil {
			svc.OnMutate = func(offset uint32) {
				count, err := st.WriteCountOf(offset)
				if err != nil {
					return
				}
				reporter.Publish(offset, count)
			}
		}
		if err = svc.Run(ctx); err == context.Canceled {
			conn.Close()
			return err
		}
		glog.Infof("session from %s ended: %v", conn.RemoteAddr(), err)
		conn.Close()
	}
}

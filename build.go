package main

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"
)

// rtmidi driver needs cgo, cross builds use the C compiler given per target
var availableTargets = []target{
	{goos: "linux", goarch: "arm", goarm: "6", cc: "arm-linux-gnueabi-gcc"},   // Pi Zero, Pi 1
	{goos: "linux", goarch: "arm", goarm: "7", cc: "arm-linux-gnueabihf-gcc"}, // Pi 2, Pi 3 on 32-bit OS
	{goos: "linux", goarch: "arm64", cc: "aarch64-linux-gnu-gcc"},             // Pi 3/4/5 on 64-bit OS
	{goos: "linux", goarch: "amd64"},
}

type target struct {
	goos   string
	goarch string
	goarm  string
	cc     string
}

func (t target) String() string {
	if t.goarm != "" {
		return fmt.Sprintf("%s-%s-v%s", t.goos, t.goarch, t.goarm)
	}
	return fmt.Sprintf("%s-%s", t.goos, t.goarch)
}

func (t target) env() []string {
	env := []string{"GOOS=" + t.goos, "GOARCH=" + t.goarch}
	if t.goarm != "" {
		env = append(env, "GOARM="+t.goarm)
	}
	if !cgo {
		return append(env, "CGO_ENABLED=0")
	}
	env = append(env, "CGO_ENABLED=1")
	if t.cc != "" && t.goarch != runtime.GOARCH {
		env = append(env, "CC="+t.cc)
	}
	return env
}

type result struct {
	target         target
	err            error
	stdout, stderr string
}

func build(t target) result {
	params := []string{"build", "-o", fmt.Sprintf("./builds/%s-%s", basename, t)}
	if race {
		params = append(params, "-race")
	}
	params = append(params, project)

	cmd := exec.Command("go", params...)
	cmd.Env = append(os.Environ(), t.env()...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return result{target: t, err: err, stdout: stdout.String(), stderr: stderr.String()}
}

func selectTargets(selection string) ([]target, error) {
	if selection == "all" {
		return availableTargets, nil
	}
	var selected []target
	for _, name := range strings.Split(selection, ",") {
		var found bool
		for _, t := range availableTargets {
			if t.String() == name {
				selected = append(selected, t)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("target not found: %s", name)
		}
	}
	return selected, nil
}

var selection, project, basename string
var cgo, race bool

func init() {
	var targets []string
	for _, t := range availableTargets {
		targets = append(targets, t.String())
	}
	flag.StringVar(&selection, "platforms", "all", fmt.Sprintf(
		"comma-separated target platform list\navailable: %s", strings.Join(targets, ",")),
	)
	flag.StringVar(&project, "project", "./cmd/gpidi/", "choose project directory")
	flag.StringVar(&basename, "base", "GPIDI", "base filename for output binaries")
	flag.BoolVar(&cgo, "cgo", true, "cgo, required by rtmidi driver")
	flag.BoolVar(&race, "race", false, "include race detector")
	flag.Parse()
}

func main() {
	log.SetFlags(log.Ltime)

	targets, err := selectTargets(selection)
	if err != nil {
		log.Print(err)
		os.Exit(1)
	}
	log.Printf("engaging parallel building for %d targets", len(targets))

	results := make([]result, len(targets))
	wg := sync.WaitGroup{}
	for i, t := range targets {
		wg.Add(1)
		go func(i int, t target) {
			defer wg.Done()
			log.Printf("building %s for %s", project, t)
			results[i] = build(t)
			if results[i].err != nil {
				log.Printf("building %s for %s failed: %v", project, t, results[i].err)
			} else {
				log.Printf("building %s for %s done", project, t)
			}
		}(i, t)
	}
	wg.Wait()

	var failed bool
	for _, r := range results {
		if r.err == nil {
			continue
		}
		failed = true
		fmt.Printf("\n>>> Failed build: project: %s, base: %s, target: %s\n", project, basename, r.target)
		if r.stdout != "" {
			fmt.Printf("======== STDOUT ========\n%s========================\n", r.stdout)
		}
		if r.stderr != "" {
			fmt.Printf("======== STDERR ========\n%s========================\n", r.stderr)
		}
	}

	if failed {
		os.Exit(1)
	}
}

// Command fakesample imitates the console output of the asynchronous
// classification sample so the harness can be exercised without an inference
// runtime. It accepts the sample's flags and prints a top-10 table whose first
// class is taken from FAKESAMPLE_TOP1 (default 215).
//
// FAKESAMPLE_EXIT sets the exit code and FAKESAMPLE_SLEEP delays the output,
// for exercising error and timeout handling.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type repeated []string

func (r *repeated) String() string { return strings.Join(*r, ",") }

func (r *repeated) Set(v string) error {
	*r = append(*r, v)
	return nil
}

func main() {
	var inputs repeated
	fs := flag.NewFlagSet("classification_sample_async", flag.ExitOnError)
	fs.Var(&inputs, "i", "input image, may be repeated")
	model := fs.String("m", "", "path to the model")
	device := fs.String("d", "CPU", "target device")
	batch := fs.Int("batch", 0, "batch size")
	_ = fs.Parse(splitInputs(os.Args[1:]))

	if len(inputs) == 0 || *model == "" {
		fmt.Fprintln(os.Stderr, "[ ERROR ] -i and -m are required")
		os.Exit(1)
	}

	if raw := os.Getenv("FAKESAMPLE_SLEEP"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			time.Sleep(d)
		}
	}

	images := len(inputs)
	if *batch > images {
		images = *batch
	}

	top1 := envOr("FAKESAMPLE_TOP1", "215")
	fmt.Println("[ INFO ] OpenVINO Runtime version ......... 2022.1.0")
	fmt.Printf("[ INFO ] Loading model files: %s\n", *model)
	fmt.Printf("[ INFO ] Loading model to the device %s\n", *device)
	fmt.Println("[ INFO ] Completed async requests execution")
	for n := 0; n < images; n++ {
		fmt.Println()
		fmt.Println("Top 10 results:")
		fmt.Println()
		fmt.Printf("Image %s\n", inputs[n%len(inputs)])
		fmt.Println()
		fmt.Println("classid probability")
		fmt.Println("------- -----------")
		fmt.Printf("%-7s 0.9991230\n", top1)
		for _, cls := range []string{"281", "282", "285", "287"} {
			fmt.Printf("%-7s 0.0001000\n", cls)
		}
	}
	fmt.Println()
	fmt.Println("[ INFO ] Execution successful")

	if code, err := strconv.Atoi(os.Getenv("FAKESAMPLE_EXIT")); err == nil && code != 0 {
		os.Exit(code)
	}
}

// splitInputs rewrites "-i a b" into "-i a -i b", the form the Python
// samples use for several images.
func splitInputs(args []string) []string {
	out := make([]string, 0, len(args))
	inInputs := false
	for _, arg := range args {
		switch {
		case arg == "-i":
			inInputs = true
			out = append(out, arg)
			continue
		case strings.HasPrefix(arg, "-"):
			inInputs = false
		case inInputs && out[len(out)-1] != "-i":
			out = append(out, "-i")
		}
		out = append(out, arg)
	}
	return out
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

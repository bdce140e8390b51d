// Command orbitc is a minimal CLI driving the backend pipeline over
// an already-parsed Root expression. Lexing and parsing an .orb file
// into that Root is an external collaborator (spec §1): orbitc wires
// one in via RootLoader and otherwise only prints colorized
// diagnostics, matching the teacher's cmd/ailang/main.go split
// between "phases never print" and "the CLI is the only thing that
// touches a terminal".
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/orbitlang/orbit-backend/internal/ast"
	"github.com/orbitlang/orbit-backend/internal/pipeline"
	"github.com/orbitlang/orbit-backend/internal/resolver"
	"github.com/orbitlang/orbit-backend/internal/session"
)

var (
	Version = "dev"
	Commit  = "unknown"

	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// RootLoader parses path into a Root expression ready for P1..P5.
// orbitc ships no implementation of its own (spec §1); set it in a
// build that links a real frontend.
type RootLoader func(path string) (*ast.Expression, error)

var loadRoot RootLoader = func(path string) (*ast.Expression, error) {
	return nil, fmt.Errorf("orbitc: no frontend linked; cannot parse %s into a Root expression", path)
}

func main() {
	var (
		versionFlag = flag.Bool("version", false, "print version information")
		helpFlag    = flag.Bool("help", false, "show help")
		searchFlag  = flag.String("I", "", "comma-separated search paths for `with` imports")
		ccFlag      = flag.String("cc", "c", "calling convention: c or fastcc")
	)
	flag.Parse()

	if *versionFlag {
		fmt.Printf("orbitc %s (%s)\n", Version, Commit)
		return
	}
	if *helpFlag || flag.NArg() == 0 {
		printHelp()
		return
	}

	switch command := flag.Arg(0); command {
	case "compile":
		if flag.NArg() < 2 {
			fmt.Fprintf(os.Stderr, "%s: missing file argument\n", red("error"))
			fmt.Println("usage: orbitc compile <file.orb>")
			os.Exit(1)
		}
		compile(flag.Arg(1), splitPaths(*searchFlag), session.CallingConvention(*ccFlag))
	default:
		fmt.Fprintf(os.Stderr, "%s: unknown command %q\n", red("error"), command)
		printHelp()
		os.Exit(1)
	}
}

func compile(path string, searchPaths []string, cc session.CallingConvention) {
	root, err := loadRoot(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("error"), err)
		os.Exit(1)
	}

	sess := session.New(searchPaths, cc)
	pl := pipeline.New(resolver.NewFS(searchPaths))

	result, err := pl.Compile(sess, root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("error"), err)
		os.Exit(1)
	}

	for _, w := range sess.Warnings() {
		fmt.Fprintf(os.Stderr, "%s: %s\n", yellow("warning"), w.String())
	}

	fmt.Printf("%s %d API(s) compiled to LLVM IR:\n", green("ok"), len(result.Modules))
	for name, mod := range result.Modules {
		fmt.Printf("  %s %s (%d function(s), %d type(s))\n", bold(name), path, len(mod.Funcs), len(mod.TypeDefs))
	}
}

func splitPaths(raw string) []string {
	if raw == "" {
		return nil
	}
	return strings.Split(raw, ",")
}

func printHelp() {
	fmt.Println(bold("orbitc") + " - Orbit backend compiler driver")
	fmt.Println()
	fmt.Println("Usage: orbitc [flags] <command> [args]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  compile <file.orb>   run P1..P5 over a parsed Root and emit LLVM IR")
	fmt.Println()
	fmt.Println("Flags:")
	flag.PrintDefaults()
}

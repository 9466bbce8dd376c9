// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command termdump parses a Prolog term and prints the order in
// which the heap walkers visit its cells, or a Graphviz rendering of
// its cell graph. Cyclic terms are fine; back edges are flagged.
//
// Usage:
//
//	termdump [flags] [term]
//
// With no term argument the term is read from standard input.
package main

import (
	"fmt"
	"io/ioutil"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/go-prolog/wam/atom"
	"github.com/go-prolog/wam/internal/graph"
	"github.com/go-prolog/wam/machine"
	"github.com/go-prolog/wam/term"
)

var (
	order     string
	stackless bool
	dotOut    bool
)

func main() {
	cmd := &cobra.Command{
		Use:           "termdump [term]",
		Short:         "walk the heap representation of a Prolog term",
		Args:          cobra.MaximumNArgs(1),
		RunE:          run,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.Flags().StringVar(&order, "order", "pre", "traversal order: pre or post")
	cmd.Flags().BoolVar(&stackless, "stackless", false, "use the pointer-reversal walker (arguments right to left)")
	cmd.Flags().BoolVar(&dotOut, "dot", false, "emit a Graphviz rendering instead of a walk")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	var src string
	if len(args) == 1 {
		src = args[0]
	} else {
		in, err := ioutil.ReadAll(os.Stdin)
		if err != nil {
			return errors.Wrap(err, "reading stdin")
		}
		src = string(in)
	}

	tbl := atom.NewTable()
	root, heap, err := term.Read(tbl, src)
	if err != nil {
		return err
	}

	if dotOut {
		d := graph.Dot{
			Name: "term",
			Label: func(n int) string {
				return fmt.Sprintf("%d: %s", n, machine.FormatCell(*heap.At(n), tbl))
			},
		}
		return d.Fprint(graph.HeapGraph{Heap: heap}, os.Stdout)
	}

	var it machine.FocusedHeapIter
	var stack machine.Stack
	switch {
	case order == "pre" && !stackless:
		it = machine.NewStackfulPreOrderIter(&heap, &stack, root)
	case order == "pre":
		it = machine.NewStacklessPreOrderIter(&heap, root)
	case order == "post" && !stackless:
		it = machine.StackfulPostOrderIter(&heap, &stack, root)
	case order == "post":
		it = machine.StacklessPostOrderIter(&heap, root)
	default:
		return errors.Errorf("unknown order %q", order)
	}
	defer it.Close()

	for {
		c, ok := it.Next()
		if !ok {
			return nil
		}
		line := machine.FormatCell(c.WithoutBits(), tbl)
		if c.Forwarding() {
			line += "  (cycle)"
		}
		fmt.Printf("%4d  %s\n", it.Focus().Index(), line)
	}
}

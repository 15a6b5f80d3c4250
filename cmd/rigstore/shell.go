package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/c-bata/go-prompt"

	"github.com/scigolib/rigmerge"
)

// shell is the interactive explorer state. Sessions are read lazily and
// cached for the life of the prompt.
type shell struct {
	store    *rigmerge.Store
	sessions map[string]*rigmerge.Session
}

func runShell(path string) error {
	store, err := rigmerge.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	sh := &shell{store: store, sessions: make(map[string]*rigmerge.Session)}
	fmt.Printf("exploring %s, type 'help' for commands\n", path)

	p := prompt.New(sh.execute, sh.complete,
		prompt.OptionTitle("rigstore"),
		prompt.OptionPrefix("rigstore> "),
	)
	p.Run()
	return nil
}

func (sh *shell) execute(line string) {
	args := strings.Fields(line)
	if len(args) == 0 {
		return
	}
	switch args[0] {
	case "help":
		fmt.Println(`Commands:
  ls                        list top-level groups
  sessions                  list session groups
  attrs <group>             show group attributes
  signals <group>           show signal descriptors
  stats <group> <signal>    summarize one signal column
  quit`)
	case "ls":
		for _, name := range sh.store.Sessions("") {
			fmt.Println(name)
		}
	case "sessions":
		for _, name := range sh.store.Sessions("Session") {
			fmt.Println(name)
		}
	case "attrs":
		if len(args) != 2 {
			fmt.Println("usage: attrs <group>")
			return
		}
		sess, err := sh.session(args[1])
		if err != nil {
			fmt.Println(err)
			return
		}
		for _, a := range sess.Meta {
			fmt.Printf("%-24s %v\n", a.Name, a.Value)
		}
	case "signals":
		if len(args) != 2 {
			fmt.Println("usage: signals <group>")
			return
		}
		sess, err := sh.session(args[1])
		if err != nil {
			fmt.Println(err)
			return
		}
		for i, d := range sess.Signals {
			fmt.Printf("%3d  %s\n", i, d.Label())
		}
	case "stats":
		if len(args) != 3 {
			fmt.Println("usage: stats <group> <signal>")
			return
		}
		sh.stats(args[1], args[2])
	case "quit", "exit":
		os.Exit(0)
	default:
		fmt.Printf("unknown command %q, type 'help'\n", args[0])
	}
}

func (sh *shell) stats(group, signal string) {
	sess, err := sh.session(group)
	if err != nil {
		fmt.Println(err)
		return
	}
	col := rigmerge.FindColumn(sess.Signals, signal)
	if col == rigmerge.ColumnNotFound {
		fmt.Printf("signal %q not found in %s\n", signal, group)
		return
	}
	if sess.Samples == nil {
		fmt.Printf("%s has no sample table\n", group)
		return
	}
	s, err := rigmerge.Summarize(sess.Samples.Column(col))
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Printf("count %d  min %g  max %g  mean %g\n", s.Count, s.Min, s.Max, s.Mean)
	fmt.Printf("p50 %g  p95 %g  p99 %g\n", s.P50, s.P95, s.P99)
}

func (sh *shell) session(name string) (*rigmerge.Session, error) {
	if sess, ok := sh.sessions[name]; ok {
		return sess, nil
	}
	diag := &rigmerge.Diagnostics{}
	sess, err := sh.store.ReadSession(name, diag)
	if err != nil {
		return nil, err
	}
	for _, w := range diag.Warnings {
		fmt.Printf("warning: %s\n", w)
	}
	sh.sessions[name] = sess
	return sess, nil
}

func (sh *shell) complete(d prompt.Document) []prompt.Suggest {
	text := d.TextBeforeCursor()
	if !strings.Contains(text, " ") {
		cmds := []prompt.Suggest{
			{Text: "ls", Description: "list top-level groups"},
			{Text: "sessions", Description: "list session groups"},
			{Text: "attrs", Description: "show group attributes"},
			{Text: "signals", Description: "show signal descriptors"},
			{Text: "stats", Description: "summarize a signal column"},
			{Text: "help", Description: "show commands"},
			{Text: "quit", Description: "leave the shell"},
		}
		return prompt.FilterHasPrefix(cmds, d.GetWordBeforeCursor(), true)
	}

	// Second token: complete group names.
	var groups []prompt.Suggest
	for _, name := range sh.store.Sessions("") {
		groups = append(groups, prompt.Suggest{Text: name})
	}
	return prompt.FilterHasPrefix(groups, d.GetWordBeforeCursor(), true)
}

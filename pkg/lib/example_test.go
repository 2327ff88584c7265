package lib_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adsysio/adsys/pkg/lib"
)

// This example shows how to run a command and read its output.
func Example_exec() {
	ctx := context.Background()

	// Use a temp directory so the example does not touch ~/.adsys.
	dir, err := os.MkdirTemp("", "adsys-example-*")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(dir)

	client, err := lib.New(ctx, lib.Config{
		DBPath: filepath.Join(dir, "adsys.db"),
	})
	if err != nil {
		panic(err)
	}
	defer client.Close()

	result, err := client.Exec(ctx, "echo hello world", nil)
	if err != nil {
		panic(err)
	}

	fmt.Println(result.Stdout)
	// Output: hello world
}

// This example shows how a session keeps state across commands.
func Example_session() {
	ctx := context.Background()

	dir, err := os.MkdirTemp("", "adsys-example-*")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(dir)

	client, err := lib.New(ctx, lib.Config{
		DBPath: filepath.Join(dir, "adsys.db"),
	})
	if err != nil {
		panic(err)
	}
	defer client.Close()

	sess, err := client.NewSession(lib.SessionOpts{Dir: dir})
	if err != nil {
		panic(err)
	}

	sess.SetVar("NAME", "adsys")

	result, err := sess.Run(ctx, "echo running as $NAME", &lib.ExecOpts{Shell: true})
	if err != nil {
		panic(err)
	}

	fmt.Println(result.Stdout)
	// Output: running as adsys
}

// Package lib provides a Go SDK for common sysadmin automation tasks.
//
// This package allows applications to run local commands, manage containers,
// and install system packages without shelling out to the adsys CLI binary.
// It is useful for scripting, automation, and building tools on top of adsys.
//
// # Quick Start
//
// Create a client and run a command:
//
//	client, err := lib.New(ctx, lib.Config{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	result, err := client.Exec(ctx, "uname -a", nil)
//	fmt.Println(result.Stdout)
//
// # Sessions
//
// A [Session] keeps a working directory and environment variables across
// commands, like an interactive shell:
//
//	sess, _ := client.NewSession(lib.SessionOpts{Dir: "/tmp"})
//	sess.SetVar("ENVIRONMENT", "staging")
//	sess.Run(ctx, "ls -la", nil)
//
// # Interactive Programs
//
// An [InteractiveSession] automates programs that prompt on a terminal by
// matching their output and answering:
//
//	sess, _ := client.NewInteractiveSession("ssh-keygen", nil)
//	sess.AutoInteract([]lib.InteractionStep{
//	    {Pattern: "Enter file in which to save the key", Response: "/tmp/id_ed25519"},
//	    {Pattern: "Enter passphrase", Response: ""},
//	    {Pattern: "Enter same passphrase again", Response: ""},
//	})
//
// # Containers
//
// Run containers against the local Docker daemon, optionally blocking until
// a readiness line appears in the logs:
//
//	c, _ := client.RunContainer(ctx, lib.ContainerRunOpts{
//	    Image:      "postgres:16",
//	    Detach:     true,
//	    WaitForLog: "ready to accept connections",
//	})
//	defer client.StopContainer(ctx, c.Name)
//
// # Packages
//
// Install system packages with the host's package manager (apt or dnf,
// auto-detected). Already-installed packages are skipped:
//
//	client.InstallPackages(ctx, []string{"curl", "jq"}, false)
//
// # Error Handling
//
// All methods return errors that can be inspected with [errors.Is]:
//
//   - [ErrNotFound]: Resource does not exist.
//   - [ErrAlreadyExists]: Resource with the same identifier already exists.
//   - [ErrNotValid]: Invalid input or operation.
//   - [ErrTimeout]: An operation exceeded its time budget.
//
// # Thread Safety
//
// A [Client] is safe for concurrent use from multiple goroutines. The
// execution history uses SQLite with WAL mode.
package lib

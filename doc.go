// Package svcctl installs, controls and runs a single background service
// under systemd.
//
// The Manager type owns the service's unit file and delegates control to
// systemctl through a ProcessController:
//
//	bin, err := svcctl.ExecutablePath()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	mgr, err := svcctl.NewManager("exampled", "Example daemon", bin)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Write /etc/systemd/system/exampled.service, daemon-reload and enable
//	err = mgr.Install(context.Background())
//
//	// An inactive unit is a normal answer, not an error
//	state, err := mgr.Status(context.Background())
//	fmt.Println(state) // active, inactive or unknown
//
// # Unit file
//
// The unit file has a fixed grammar: restart-always with a one second
// backoff, ExecStart set to the binary followed by the run argument, and
// output sent to the journal. Rendering is deterministic, so installing twice
// with the same inputs writes identical bytes. The file is replaced
// atomically.
//
// # Daemon
//
// When systemd starts the binary with the run argument it should enter a
// Daemon. The Daemon alternates between periodic work units and waiting for
// SIGINT or SIGTERM:
//
//	d, err := svcctl.NewDaemon(svcctl.DefaultWork(nil),
//	    svcctl.WithInterval(30*time.Second),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = d.Run(context.Background())
//
// A failing work unit is logged and the loop continues with the next tick.
// The first termination signal moves the loop to shutting-down, runs cleanup
// once and returns.
//
// # Privileges
//
// Install and Uninstall require root and return a *PrivilegeError otherwise.
// Start, Stop, Restart and Status leave permission checks to systemd. No
// operation is retried; concurrent administrative commands against the same
// unit are not serialized.
package svcctl

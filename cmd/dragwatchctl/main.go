// dragwatchctl is the control CLI for dragwatchd.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"dragwatch/internal/config"
	"dragwatch/internal/ipc"
)

var (
	configPath = flag.String("config", "", "path to config file")
	socketPath = flag.String("socket", "", "daemon control socket (overrides config)")
	asJSON     = flag.Bool("json", false, "print raw JSON output")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(1)
	}

	cmd := flag.Arg(0)

	switch cmd {
	case "status":
		cmdStatus()
	case "health":
		cmdHealth()
	case "metrics":
		cmdMetrics()
	case "dragging":
		cmdDragging()
	case "check-now":
		cmdCheckNow()
	case "activate":
		cmdActivate()
	case "watch":
		cmdWatch()
	case "shutdown":
		cmdShutdown()
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `dragwatchctl - Control utility for dragwatchd

Usage: dragwatchctl [options] <command>

Commands:
  status      Show daemon status
  health      Show daemon health report
  metrics     Print daemon metrics
  dragging    Report whether a file drag is in progress
  check-now   Probe the clipboard for file content right now
  activate    Signal drag intent (starts an optimistic session)
  watch       Stream drag lifecycle events until interrupted
  shutdown    Ask the daemon to exit
  help        Show this help message

Options:
  -config <path>  Path to config file
  -socket <path>  Daemon control socket (overrides config)
  -json           Print raw JSON output`)
}

func connect() *ipc.CtlClient {
	path := *socketPath
	if path == "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		path = cfg.IPC.SocketPath
	}

	client := ipc.NewClient(ipc.DefaultClientConfig(path))
	if err := client.Connect(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintln(os.Stderr, "Is dragwatchd running?")
		os.Exit(1)
	}
	return client
}

func cmdStatus() {
	client := connect()
	defer client.Close()

	status, err := client.Status(true)
	if err != nil {
		fail(err)
	}

	if *asJSON {
		printJSON(status)
		return
	}

	fmt.Println("=== dragwatchd Status ===")
	fmt.Printf("Version:    %s\n", status.Version)
	fmt.Printf("Uptime:     %s\n", status.Uptime)
	fmt.Printf("Backend:    %s\n", status.Backend)
	fmt.Printf("Tracking:   %v\n", status.Tracking)
	fmt.Printf("Phase:      %s\n", status.Phase)
	fmt.Printf("Dragging:   %v\n", status.Dragging)
	fmt.Printf("Sample Hz:  %.1f\n", status.SampleHz)
	fmt.Printf("Memory:     %s\n", formatBytes(int64(status.MemoryBytes)))
	if status.Session != nil {
		fmt.Println()
		fmt.Println("Active session:")
		fmt.Printf("  Activated:  %s\n", status.Session.ActivatedAt.Format(time.RFC3339))
		fmt.Printf("  Refreshes:  %d\n", status.Session.Refreshes)
		fmt.Printf("  Probe hits: %d\n", status.Session.ProbeHits)
	}
}

func cmdHealth() {
	client := connect()
	defer client.Close()

	report, err := client.Health(true)
	if err != nil {
		fail(err)
	}

	if *asJSON {
		printJSON(report)
		return
	}

	fmt.Printf("Status: %s\n", report.Status)
	fmt.Printf("Ready:  %v\n", report.Ready)
	fmt.Printf("Uptime: %s\n", report.Uptime)
	if len(report.Components) > 0 {
		fmt.Println()
		for name, result := range report.Components {
			fmt.Printf("  %-12s %-10s %s\n", name, result.Status, result.Message)
		}
	}
}

func cmdMetrics() {
	client := connect()
	defer client.Close()

	metrics, err := client.Metrics()
	if err != nil {
		fail(err)
	}

	if *asJSON {
		printJSON(metrics.Snapshot)
		return
	}
	fmt.Print(metrics.Text)
}

func cmdDragging() {
	client := connect()
	defer client.Close()

	dragging, err := client.Dragging()
	if err != nil {
		fail(err)
	}

	if *asJSON {
		printJSON(dragging)
		return
	}

	if dragging.Dragging {
		fmt.Printf("dragging (phase %s)\n", dragging.Phase)
		if dragging.Session != nil {
			fmt.Printf("  activated %s, %d refreshes, %d probe hits\n",
				dragging.Session.ActivatedAt.Format(time.RFC3339),
				dragging.Session.Refreshes,
				dragging.Session.ProbeHits)
		}
	} else {
		fmt.Println("not dragging")
	}
}

func cmdCheckNow() {
	client := connect()
	defer client.Close()

	result, err := client.CheckNow()
	if err != nil {
		fail(err)
	}

	if *asJSON {
		printJSON(result)
		return
	}

	if result.HasFileSignature {
		fmt.Println("clipboard holds file content")
		for _, p := range result.FilePaths {
			fmt.Printf("  %s\n", p)
		}
	} else {
		fmt.Println("no file content on clipboard")
	}
}

func cmdActivate() {
	client := connect()
	defer client.Close()

	resp, err := client.Activate()
	if err != nil {
		fail(err)
	}

	if *asJSON {
		printJSON(resp)
		return
	}
	fmt.Printf("activated (phase %s)\n", resp.Phase)
}

func cmdWatch() {
	client := connect()
	defer client.Close()

	if err := client.Subscribe(); err != nil {
		fail(err)
	}

	fmt.Fprintln(os.Stderr, "watching drag events (Ctrl-C to stop)")
	for {
		ev, err := client.NextEvent(24 * time.Hour)
		if err != nil {
			fail(err)
		}

		if *asJSON {
			printJSON(ev)
			continue
		}

		ts := ev.Timestamp.Format("15:04:05.000")
		switch ev.Type {
		case ipc.EventDragStart:
			fmt.Printf("%s drag-start\n", ts)
		case ipc.EventDragEnd:
			fmt.Printf("%s drag-end\n", ts)
		case ipc.EventFilesDetected:
			fmt.Printf("%s files-detected %v\n", ts, ev.Data)
		case ipc.EventShakeDetected:
			fmt.Printf("%s shake\n", ts)
		case ipc.EventConfigChanged:
			fmt.Printf("%s config-changed\n", ts)
		case ipc.EventDaemonShutdown:
			fmt.Printf("%s daemon-shutdown\n", ts)
			return
		default:
			fmt.Printf("%s event %#04x\n", ts, uint16(ev.Type))
		}
	}
}

func cmdShutdown() {
	client := connect()
	defer client.Close()

	if err := client.Shutdown(); err != nil {
		fail(err)
	}
	fmt.Println("shutdown requested")
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fail(err)
	}
	fmt.Println(string(data))
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

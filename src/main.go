package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"diagramdb/src/proxy"
	"diagramdb/src/server"
	"diagramdb/src/settings"
)

// printUsage prints helpful usage information
func printUsage() {
	log.Println("diagramdb - a class diagram document store")
	log.Println("\nUsage:")
	log.Println("  diagramdb [options]")
	log.Println("\nOptions:")
	flag.PrintDefaults()

	log.Println("\nExamples:")
	log.Println("  diagramdb --datadir=/data")
	log.Println("  diagramdb --port=50051 --proxyport=8080")
}

func main() {
	// Get the global settings instance
	args := settings.GetSettings()

	// Define command line flags that map to the Arguments struct
	flag.StringVar(&args.DataDir, "datadir", "data", "Directory to store the snapshot and export files")
	flag.StringVar(&args.LogDir, "logdir", "", "Directory to store log files (default: stdout)")
	flag.StringVar(&args.Host, "host", "127.0.0.1", "Host name or IP address to listen on")
	flag.IntVar(&args.Port, "port", 50051, "Port for the binary RPC server")
	flag.IntVar(&args.ProxyPort, "proxyport", 8080, "Port for the JSON/HTTP proxy")
	flag.DurationVar(&args.CheckpointInterval, "checkpoint", time.Minute, "Interval between periodic snapshots to disk")
	flag.DurationVar(&args.ShutdownDeadline, "shutdowndeadline", 60*time.Second, "How long shutdown waits for the final snapshot")
	flag.BoolVar(&args.Verbose, "verbose", true, "Enable verbose logging")
	flag.StringVar(&args.ConfigFile, "config", "", "Path to config file")
	flag.BoolVar(&args.AuthEnabled, "auth", false, "Enable authentication on the RPC port")
	flag.StringVar(&args.Version, "version", "0.0.1alpha", "Shows version")
	flag.BoolVar(&args.PrintToScreen, "print", true, "Print Log Messages to screen")
	flag.BoolVar(&args.Debug, "debug", true, "Enable debug mode")

	// Parse the command line
	flag.Parse()

	if args.LogDir != "" {
		timestamp := time.Now().Format("2006-01-02_15-04-05")
		logFilename := fmt.Sprintf("%s_%s_ServerLog.txt", timestamp, args.Host)

		// Combine with the directory path from args.LogDir
		args.LogDir = filepath.Join(args.LogDir, logFilename)
	}

	// Validate the arguments
	if err := validateArguments(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n\n", err)
		printUsage()
		os.Exit(1)
	}

	// Configure logger
	log.SetOutput(os.Stdout)
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile)

	// Print the arguments if in verbose mode
	if args.Verbose {
		log.Println("diagramdb starting with options:")
		log.Printf("  Data Directory: %s\n", args.DataDir)
		log.Printf("  Host: %s\n", args.Host)
		log.Printf("  RPC Port: %d\n", args.Port)
		log.Printf("  Proxy Port: %d\n", args.ProxyPort)
		log.Printf("  Checkpoint Interval: %s\n", args.CheckpointInterval)
		log.Printf("  Shutdown Deadline: %s\n", args.ShutdownDeadline)
		log.Printf("  Verbose: %v\n", args.Verbose)
	}

	// Set up logging
	if args.LogDir != "" {
		log.Printf("Logging to file: %s", args.LogDir)

		logFile, err := os.OpenFile(args.LogDir, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
		if err != nil {
			log.Fatalf("Failed to open log file: %v", err)
		}
		defer logFile.Close()

		// Use MultiWriter to write logs to both file and stdout if PrintToScreen is enabled
		if args.PrintToScreen {
			mw := io.MultiWriter(os.Stdout, logFile)
			log.SetOutput(mw)
		} else {
			log.SetOutput(logFile)
		}
	}

	// Create and start the server. InitServer loads the persisted
	// snapshot before the listener opens; a corrupt snapshot aborts
	// startup here.
	srv, err := server.InitServer(args)
	if err != nil {
		log.Fatalf("Failed to initialize server: %v", err)
	}

	// Add users if authentication is enabled
	if args.AuthEnabled {
		srv.AddUser("admin", "admin123")
	}

	// Start the server
	if err := srv.Start(); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	// Start the JSON proxy in the background
	p := proxy.NewProxy(srv.Addr(), srv.Logger())
	if args.AuthEnabled {
		p.WithCredentials("admin", "admin123")
	}

	go func() {
		proxyAddr := net.JoinHostPort(args.Host, strconv.Itoa(args.ProxyPort))
		if err := p.ListenAndServe(proxyAddr); err != nil {
			log.Printf("Proxy server error: %v", err)
		}
	}()

	// Handle graceful shutdown
	shutdownSignal := make(chan os.Signal, 1)
	signal.Notify(shutdownSignal, syscall.SIGINT, syscall.SIGTERM)

	<-shutdownSignal
	fmt.Println("\nShutting down server...")

	if err := srv.Stop(); err != nil {
		log.Printf("Error stopping server: %v", err)
	}

	fmt.Println("Server shutdown complete")
}

// validateArguments validates the arguments and returns an error if invalid
func validateArguments(args *settings.Arguments) error {
	// Check if data directory exists and is accessible
	dirInfo, err := os.Stat(args.DataDir)
	if err != nil {
		if os.IsNotExist(err) {
			// Try to create the directory
			err = os.MkdirAll(args.DataDir, 0755)
			if err != nil {
				return fmt.Errorf("could not create data directory: %w", err)
			}
		} else {
			return fmt.Errorf("error accessing data directory: %w", err)
		}
	} else if !dirInfo.IsDir() {
		return fmt.Errorf("data directory path exists but is not a directory: %s", args.DataDir)
	}

	// Check if log file can be written to
	if args.LogDir != "" {
		logDir := filepath.Dir(args.LogDir)
		if logDir != "." {
			if _, err := os.Stat(logDir); os.IsNotExist(err) {
				err = os.MkdirAll(logDir, 0755)
				if err != nil {
					return fmt.Errorf("could not create log directory: %w", err)
				}
			}
		}

		// Check if we can create/open the log file
		logFile, err := os.OpenFile(args.LogDir, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("could not open log file for writing: %w", err)
		}
		logFile.Close()
	}

	// Validate port ranges
	if args.Port < 1 || args.Port > 65535 {
		return fmt.Errorf("invalid port number: %d (must be between 1 and 65535)", args.Port)
	}

	if args.ProxyPort < 1 || args.ProxyPort > 65535 {
		return fmt.Errorf("invalid proxy port number: %d (must be between 1 and 65535)", args.ProxyPort)
	}

	if args.Port == args.ProxyPort {
		return fmt.Errorf("RPC port and proxy port must differ (both %d)", args.Port)
	}

	// Validate durations
	if args.CheckpointInterval <= 0 {
		return fmt.Errorf("invalid checkpoint interval: %s", args.CheckpointInterval)
	}

	if args.ShutdownDeadline <= 0 {
		return fmt.Errorf("invalid shutdown deadline: %s", args.ShutdownDeadline)
	}

	// If config file is specified, check if it exists and is readable
	if args.ConfigFile != "" {
		_, err := os.Stat(args.ConfigFile)
		if err != nil {
			return fmt.Errorf("could not access config file: %w", err)
		}
	}

	return nil
}

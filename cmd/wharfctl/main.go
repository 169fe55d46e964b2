package main

import (
	"fmt"
	"log"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/wharfd/wharf"
	"github.com/wharfd/wharf/admin"
	"github.com/wharfd/wharf/admin/client"
)

// Environnement var for the url on which the admin service is accessible.
const envWharfURL = "WHARF_URL"

func loadWharfURL() (*url.URL, error) {
	rawurl := os.Getenv(envWharfURL)
	if rawurl == "" {
		rawurl = "http://localhost:5214"
	}
	u, err := url.Parse(rawurl)
	if err != nil {
		return nil, err
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("%v is not an absolute URL", u)
	}
	if u.Path != "" {
		return nil, fmt.Errorf("%v has a path, which is not allowed", u)
	}
	return u, nil
}

func clientCmd(client *client.Client, runFn func(*client.Client, *cobra.Command, []string)) func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, args []string) {
		runFn(client, cmd, args)
	}
}

func main() {
	log.SetFlags(0)
	wharfURL, err := loadWharfURL()
	if err != nil {
		log.Fatal(err)
	}
	c := client.New(wharfURL)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show the server configuration",
		Long:  "Show the bind address, static root and default document of the server",
		Run:   clientCmd(c, status),
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show the serve counters",
		Long:  "Show how many requests were served, missed and errored, and the bytes sent",
		Run:   clientCmd(c, stats),
	}

	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset the serve counters",
		Long:  "Zero the serve counters, printing their values prior to the reset",
		Run:   clientCmd(c, reset),
	}

	tailCmd := &cobra.Command{
		Use:   "tail",
		Short: "Follow file-serve events",
		Long:  "Print each file served by the server as it happens, until interrupted",
		Run:   clientCmd(c, tail),
	}

	rootCmd := &cobra.Command{
		Use: "wharfctl",
	}
	rootCmd.AddCommand(
		statusCmd,
		statsCmd,
		resetCmd,
		tailCmd,
	)
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func status(client *client.Client, cmd *cobra.Command, args []string) {
	if len(args) > 0 {
		cmd.Usage()
		return
	}
	st, err := client.Status()
	if err != nil {
		log.Fatal(err)
	}
	addr := net.JoinHostPort(st.BindAddress, strconv.Itoa(int(st.Port)))
	fmt.Printf("serving %s on http://%s\n", st.Root, addr)
	fmt.Printf("default document: %s\n", st.DefaultDocument)
	fmt.Printf("up since: %s\n", st.StartTime.Format(time.RFC1123))
}

func stats(client *client.Client, cmd *cobra.Command, args []string) {
	if len(args) > 0 {
		cmd.Usage()
		return
	}
	data, err := client.Stats()
	if err != nil {
		log.Fatal(err)
	}
	printStats(*data)
}

func reset(client *client.Client, cmd *cobra.Command, args []string) {
	if len(args) > 0 {
		cmd.Usage()
		return
	}
	data, err := client.ResetStats()
	if err != nil {
		log.Fatal(err)
	}
	printStats(*data)
}

func printStats(data wharf.StatsData) {
	fmt.Printf("requests:  %d\n", data.Requests)
	fmt.Printf("served:    %d\n", data.Served)
	fmt.Printf("not found: %d\n", data.NotFound)
	fmt.Printf("errors:    %d\n", data.Errors)
	fmt.Printf("bytes:     %d\n", data.Bytes)
}

func tail(client *client.Client, cmd *cobra.Command, args []string) {
	if len(args) > 0 {
		cmd.Usage()
		return
	}
	ws, _, err := websocket.DefaultDialer.Dial(client.EventsURL().String(), nil)
	if err != nil {
		log.Fatal(err)
	}
	defer ws.Close()

	for {
		var event admin.Event
		if err := ws.ReadJSON(&event); err != nil {
			log.Fatal(err)
		}
		fse, ok := event.Resource.(*admin.FileServeEvent)
		if !ok {
			continue
		}
		fmt.Printf("%d %s %dB\n", fse.Status, fse.Path, fse.Bytes)
	}
}

package main

// Prints the Xero connections the configured app credentials can
// access. Run once after consenting the app to find the tenant id for
// the xero_tenant_id flag.
// Example usage on Terminal.
// XERO_CLIENT_ID=<id> XERO_CLIENT_SECRET=<secret> go run run_xero_connections.go

import (
	"flag"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"memberbase/billing/xero"
	C "memberbase/config"
	"memberbase/util"
)

func main() {
	env := flag.String("env", C.DEVELOPMENT, "")
	flag.Parse()

	defer util.NotifyOnPanic("Task#XeroConnections", *env)

	config := &C.Configuration{
		AppName: "xero_connections",
		Env:     *env,
	}
	C.InitConf(config)

	client := xero.NewClient()
	connections, err := client.GetConnections()
	if err != nil {
		log.WithError(err).Error("Failed to get xero connections.")
		os.Exit(1)
	}

	if len(connections) == 0 {
		fmt.Println("no connections authorised for this app")
		return
	}
	for _, connection := range connections {
		fmt.Printf("%s  %s  (%s)\n", connection.TenantID, connection.TenantName, connection.TenantType)
	}
}

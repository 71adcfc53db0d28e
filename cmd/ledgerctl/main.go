// Command ledgerctl runs the scheduled ledger jobs: recurring sweeps,
// installment processing and the outbox relay. Run it from cron.
package main

import "budgetledger/cmd/ledgerctl/commands"

func main() {
	commands.Execute()
}

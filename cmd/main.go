/*
Copyright 2025 Artcurate Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"fmt"
	"log"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/artcurate/curate"
	"github.com/artcurate/curate/config"
	"github.com/artcurate/curate/database"
	"github.com/artcurate/curate/internal/notification"
)

// Curate represents the CLI application, encapsulating the root Cobra command.
type Curate struct {
	cmd *cobra.Command
}

// curatorInstance holds the Curator instance and its configuration, shared by
// every subcommand after preRun.
type curatorInstance struct {
	curator *curate.Curator
	cnf     *config.Configuration
}

// recoverPanic handles any panics during program execution and logs the error.
func recoverPanic() {
	if rec := recover(); rec != nil {
		logrus.Error(rec)
		os.Exit(1)
	}
}

// preRun loads the configuration and initializes the Curator before any
// command runs.
func preRun(app *curatorInstance) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := config.InitConfig("curate.json")
		if err != nil {
			log.Fatal("error loading config", err)
		}

		cnf, err := config.Fetch()
		if err != nil {
			return err
		}

		newCurator, err := setupCurator(cnf)
		if err != nil {
			notification.NotifyError(err)
			log.Fatal(err)
		}

		app.curator = newCurator
		app.cnf = cnf

		return nil
	}
}

// setupCurator creates a Curator wired to the configured data source.
func setupCurator(cfg *config.Configuration) (*curate.Curator, error) {
	db, err := database.NewDataSource(cfg)
	if err != nil {
		return nil, fmt.Errorf("error getting datasource: %v", err)
	}

	newCurator, err := curate.NewCurator(db)
	if err != nil {
		return nil, fmt.Errorf("error creating curator: %v", err)
	}
	return newCurator, nil
}

// NewCLI creates the command-line interface for the curation server.
func NewCLI() *Curate {
	var configFile string
	c := &curatorInstance{}

	var rootCmd = &cobra.Command{
		Use:   "curate",
		Short: "Content curation queue server",
		Run:   func(cmd *cobra.Command, args []string) {},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "./curate.json", "Configuration file for the curation server")

	rootCmd.PersistentPreRunE = preRun(c)

	rootCmd.AddCommand(serverCommands(c))
	rootCmd.AddCommand(workerCommands(c))
	rootCmd.AddCommand(migrateCommands(c))
	rootCmd.AddCommand(sweepCommands(c))

	return &Curate{cmd: rootCmd}
}

func (w Curate) executeCLI() {
	if err := w.cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	defer recoverPanic()

	cli := NewCLI()
	cli.executeCLI()
}

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

package database

import (
	"database/sql"
	"log"

	_ "github.com/lib/pq"

	"github.com/artcurate/curate/config"
)

// Datasource wraps the postgres connection pool behind IDataSource. The
// pool is injected, never held as a package singleton, so tests can hand in
// a sqlmock connection.
type Datasource struct {
	Conn *sql.DB
}

// NewDataSource opens a connection pool from the configured DNS.
func NewDataSource(configuration *config.Configuration) (IDataSource, error) {
	conn, err := ConnectDB(configuration.DataSource.Dns)
	if err != nil {
		return nil, err
	}
	return &Datasource{Conn: conn}, nil
}

// NewDataSourceFromConn builds a datasource over an existing pool.
func NewDataSourceFromConn(conn *sql.DB) IDataSource {
	return &Datasource{Conn: conn}
}

// ConnectDB opens and pings a postgres connection. Schema management lives
// in the migrate command, not here.
func ConnectDB(dns string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dns)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		log.Printf("database connection error ❌: %v", err)
		return nil, err
	}
	return db, nil
}

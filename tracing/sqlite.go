package tracing

import (
	"database/sql"
	"fmt"
	"os"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"

	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// SQLiteTraceWriter is a writer that writes trace data to a SQLite database.
type SQLiteTraceWriter struct {
	*sql.DB
	taskStatement *sql.Stmt
	stepStatement *sql.Stmt

	dbName           string
	tasksToWriteToDB []Task
	batchSize        int
}

// NewSQLiteTraceWriter creates a new SQLiteTraceWriter. The database is
// written to path + ".sqlite3". An empty path gives a unique generated name.
func NewSQLiteTraceWriter(path string) *SQLiteTraceWriter {
	w := &SQLiteTraceWriter{
		dbName:    path,
		batchSize: 100000,
	}

	atexit.Register(func() { w.Flush() })

	return w
}

// FileName returns the name of the database file.
func (t *SQLiteTraceWriter) FileName() string {
	return t.dbName + ".sqlite3"
}

// Init creates the database file and its tables.
func (t *SQLiteTraceWriter) Init() error {
	if t.dbName == "" {
		t.dbName = "radixwalk_trace_" + xid.New().String()
	}

	filename := t.FileName()
	if _, err := os.Stat(filename); err == nil {
		return fmt.Errorf("file %s already exists", filename)
	}

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		return err
	}

	t.DB = db

	if err := t.createTables(); err != nil {
		return err
	}

	return t.prepareStatements()
}

// Write buffers a task. The buffer is flushed when it reaches the batch size.
func (t *SQLiteTraceWriter) Write(task Task) {
	t.tasksToWriteToDB = append(t.tasksToWriteToDB, task)
	if len(t.tasksToWriteToDB) >= t.batchSize {
		t.Flush()
	}
}

// Flush writes all the buffered tasks to the database.
func (t *SQLiteTraceWriter) Flush() {
	if len(t.tasksToWriteToDB) == 0 || t.DB == nil {
		return
	}

	tx, err := t.Begin()
	if err != nil {
		panic(err)
	}

	taskStmt := tx.Stmt(t.taskStatement)
	stepStmt := tx.Stmt(t.stepStatement)

	for _, task := range t.tasksToWriteToDB {
		_, err := taskStmt.Exec(
			task.ID,
			task.ParentID,
			task.Kind,
			task.What,
			task.Where,
			float64(task.StartTime),
			float64(task.EndTime),
		)
		if err != nil {
			panic(err)
		}

		for i, step := range task.Steps {
			_, err := stepStmt.Exec(task.ID, i, step.What, float64(step.Time))
			if err != nil {
				panic(err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		panic(err)
	}

	t.tasksToWriteToDB = nil
}

func (t *SQLiteTraceWriter) createTables() error {
	stmts := []string{
		`create table trace
		(
			task_id    varchar(200) not null,
			parent_id  varchar(200),
			kind       varchar(100),
			what       varchar(100),
			location   varchar(100),
			start_time float        not null,
			end_time   float        default 0
		);`,
		`create index trace_task_id_index on trace (task_id);`,
		`create index trace_kind_index on trace (kind);`,
		`create index trace_location_index on trace (location);`,
		`create table trace_step
		(
			task_id varchar(200) not null,
			seq     integer      not null,
			what    varchar(200),
			time    float        not null
		);`,
		`create index trace_step_task_id_index on trace_step (task_id);`,
	}

	for _, s := range stmts {
		if _, err := t.Exec(s); err != nil {
			return err
		}
	}

	return nil
}

func (t *SQLiteTraceWriter) prepareStatements() error {
	var err error

	t.taskStatement, err = t.Prepare(
		"INSERT INTO trace VALUES (?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}

	t.stepStatement, err = t.Prepare(
		"INSERT INTO trace_step VALUES (?, ?, ?, ?)")

	return err
}

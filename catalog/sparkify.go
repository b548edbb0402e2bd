package catalog

import "fmt"

// Table names of the sparkify warehouse.
const (
	TableStagingEvents = "staging_events"
	TableStagingSongs  = "staging_songs"
	TableSongplays     = "songplays"
	TableUsers         = "users"
	TableSongs         = "songs"
	TableArtists       = "artists"
	TableTime          = "time"
)

// Template names registered by Sparkify.
const (
	CopyStagingEvents = "copy_staging_events"
	CopyStagingSongs  = "copy_staging_songs"
	InsertSongplays   = "songplay_table_insert"
	InsertUsers       = "user_table_insert"
	InsertSongs       = "song_table_insert"
	InsertArtists     = "artist_table_insert"
	InsertTime        = "time_table_insert"
	TruncateTable     = "truncate_table"
	DataQualityCheck  = "data_quality_check"
	SysLoadErrors     = "sys_load_errors"
)

// TableNames lists every sparkify table, staging tables first.
var TableNames = []string{
	TableStagingEvents,
	TableStagingSongs,
	TableSongplays,
	TableUsers,
	TableSongs,
	TableArtists,
	TableTime,
}

// DropTableStatements lists the drop templates, fact table first.
var DropTableStatements = []string{
	DropName(TableSongplays),
	DropName(TableUsers),
	DropName(TableSongs),
	DropName(TableArtists),
	DropName(TableTime),
	DropName(TableStagingSongs),
	DropName(TableStagingEvents),
}

// CreateTableStatements lists the create templates, staging tables first.
var CreateTableStatements = []string{
	CreateName(TableStagingEvents),
	CreateName(TableStagingSongs),
	CreateName(TableSongplays),
	CreateName(TableArtists),
	CreateName(TableSongs),
	CreateName(TableTime),
	CreateName(TableUsers),
}

// DropName returns the template name that drops table.
func DropName(table string) string { return "drop_" + table + "_table" }

// CreateName returns the template name that creates table.
func CreateName(table string) string { return "create_" + table + "_table" }

var createBodies = map[string]string{
	TableStagingEvents: createStagingEvents,
	TableStagingSongs:  createStagingSongs,
	TableSongplays:     createSongplays,
	TableUsers:         createUsers,
	TableSongs:         createSongs,
	TableArtists:       createArtists,
	TableTime:          createTime,
}

// Sparkify returns the built-in catalog of the sparkify star schema.
func Sparkify() *Catalog {
	templates := make([]Template, 0, 2*len(TableNames)+10)
	for _, table := range TableNames {
		templates = append(templates,
			NewTemplate(DropName(table), fmt.Sprintf("DROP TABLE IF EXISTS %s;", table)),
			NewTemplate(CreateName(table), createBodies[table]),
		)
	}
	templates = append(templates,
		NewTemplate(CopyStagingEvents, copyStagingEvents),
		NewTemplate(CopyStagingSongs, copyStagingSongs),
		NewTemplate(InsertSongplays, insertSongplays),
		NewTemplate(InsertUsers, insertUsers),
		NewTemplate(InsertSongs, insertSongs),
		NewTemplate(InsertArtists, insertArtists),
		NewTemplate(InsertTime, insertTime),
		NewTemplate(TruncateTable, "TRUNCATE TABLE {table};"),
		NewTemplate(DataQualityCheck, "SELECT COUNT(*) FROM {table};"),
		NewTemplate(SysLoadErrors, "SELECT * FROM sys_load_error_detail;"),
	)
	c, err := New(templates...)
	if err != nil {
		panic(fmt.Sprintf("catalog: built-in sparkify catalog: %v", err))
	}
	return c
}

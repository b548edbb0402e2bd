package pipeline

import (
	"github.com/kbukum/starschema/catalog"
	"github.com/kbukum/starschema/stage"
)

// Stage ids of the sparkify pipeline.
const (
	BeginExecution         = "begin_execution"
	EndExecution           = "end_execution"
	CreateTables           = "create_tables"
	StageEvents            = "stage_events"
	StageSongs             = "stage_songs"
	LoadSongplaysFactTable = "load_songplays_fact_table"
	LoadUserDimTable       = "load_user_dim_table"
	LoadSongDimTable       = "load_song_dim_table"
	LoadArtistDimTable     = "load_artist_dim_table"
	LoadTimeDimTable       = "load_time_dim_table"
	RunQualityChecks       = "run_quality_checks"
)

// Settings are the deployment values of the sparkify pipeline.
type Settings struct {
	Name       string `mapstructure:"name"`
	Connection string `mapstructure:"connection"`
	// Bucket holds the event logs and the JSONPaths file.
	Bucket string `mapstructure:"bucket"`
	// SongsBucket holds the song catalog.
	SongsBucket  string `mapstructure:"songs_bucket"`
	IAMRole      string `mapstructure:"iam_role"`
	Region       string `mapstructure:"region"`
	EventsFormat string `mapstructure:"events_format"`
	SongsFormat  string `mapstructure:"songs_format"`
	// DimensionMode is append or truncate.
	DimensionMode string `mapstructure:"dimension_mode"`
	// CheckSources probes the source prefixes before each copy.
	CheckSources bool `mapstructure:"check_sources"`
}

// ApplyDefaults fills unset settings with the values the pipeline was built for.
func (s *Settings) ApplyDefaults() {
	if s.Name == "" {
		s.Name = "sparkify"
	}
	if s.Connection == "" {
		s.Connection = "redshift"
	}
	if s.SongsBucket == "" {
		s.SongsBucket = "udacity-dend"
	}
	if s.Region == "" {
		s.Region = "us-west-2"
	}
	if s.EventsFormat == "" && s.Bucket != "" {
		s.EventsFormat = "s3://" + s.Bucket + "/log_json_path.json"
	}
	if s.SongsFormat == "" {
		s.SongsFormat = "auto"
	}
	if s.DimensionMode == "" {
		s.DimensionMode = stage.ModeAppend
	}
}

// Sparkify returns the five-tier sparkify pipeline:
//
//	create_tables -> {stage_events, stage_songs} -> load_songplays_fact_table
//	  -> {load_user_dim_table, load_song_dim_table, load_artist_dim_table, load_time_dim_table}
//	  -> run_quality_checks
//
// Build brackets it with begin_execution and end_execution. Unset bucket or
// IAM role settings are left unbound and surface as render errors.
func Sparkify(s Settings) *Definition {
	s.ApplyDefaults()

	bulk := func(id, template, bucket, format, prefix string) StageDef {
		def := StageDef{
			ID:         id,
			Kind:       string(stage.KindBulkLoad),
			Statements: []string{template},
			Parameters: map[string]string{stage.ParamRegion: s.Region, stage.ParamFormat: format},
			DependsOn:  []string{CreateTables},
		}
		if bucket != "" {
			def.Parameters[stage.ParamBucket] = bucket
			if s.CheckSources {
				def.SourcePrefix = "s3://" + bucket + "/" + prefix
			}
		}
		if s.IAMRole != "" {
			def.Parameters[stage.ParamIAMRole] = s.IAMRole
		}
		if format == "" {
			delete(def.Parameters, stage.ParamFormat)
		}
		return def
	}
	dim := func(id, template, table string) StageDef {
		return StageDef{
			ID:         id,
			Kind:       string(stage.KindDimensionLoad),
			Statements: []string{template},
			Table:      table,
			Mode:       s.DimensionMode,
			DependsOn:  []string{LoadSongplaysFactTable},
		}
	}

	return &Definition{
		Name:       s.Name,
		Connection: s.Connection,
		Stages: []StageDef{
			{
				ID:     CreateTables,
				Kind:   string(stage.KindProvision),
				Drop:   append([]string(nil), catalog.DropTableStatements...),
				Create: append([]string(nil), catalog.CreateTableStatements...),
			},
			bulk(StageEvents, catalog.CopyStagingEvents, s.Bucket, s.EventsFormat, "log-data"),
			bulk(StageSongs, catalog.CopyStagingSongs, s.SongsBucket, s.SongsFormat, "song-data"),
			{
				ID:         LoadSongplaysFactTable,
				Kind:       string(stage.KindFactLoad),
				Statements: []string{catalog.InsertSongplays},
				Table:      catalog.TableSongplays,
				DependsOn:  []string{StageEvents, StageSongs},
			},
			dim(LoadUserDimTable, catalog.InsertUsers, catalog.TableUsers),
			dim(LoadSongDimTable, catalog.InsertSongs, catalog.TableSongs),
			dim(LoadArtistDimTable, catalog.InsertArtists, catalog.TableArtists),
			dim(LoadTimeDimTable, catalog.InsertTime, catalog.TableTime),
			{
				ID:         RunQualityChecks,
				Kind:       string(stage.KindQualityCheck),
				Statements: []string{catalog.DataQualityCheck},
				Tables:     append([]string(nil), catalog.TableNames...),
				DependsOn:  []string{LoadUserDimTable, LoadSongDimTable, LoadArtistDimTable, LoadTimeDimTable},
			},
		},
	}
}

// Parameters returns the shared parameters a YAML definition of the
// sparkify pipeline expects from deployment settings.
func (s Settings) Parameters() map[string]string {
	s.ApplyDefaults()
	return map[string]string{
		stage.ParamBucket:  s.Bucket,
		stage.ParamIAMRole: s.IAMRole,
		stage.ParamRegion:  s.Region,
		stage.ParamFormat:  s.EventsFormat,
	}
}

package catalog

// Statement bodies of the sparkify star schema.
const (
	createStagingEvents = `CREATE TABLE IF NOT EXISTS staging_events (
    artist varchar(512),
    auth varchar(512),
    firstname varchar(512),
    gender varchar(512),
    iteminsession int4,
    lastname varchar(512),
    length numeric(18,0),
    "level" varchar(512),
    location varchar(512),
    "method" varchar(512),
    page varchar(512),
    registration numeric(18,0),
    sessionid int4,
    song varchar(512),
    status int4,
    ts int8,
    useragent varchar(512),
    userid int4
)
DISTSTYLE EVEN;`

	createStagingSongs = `CREATE TABLE IF NOT EXISTS staging_songs (
    num_songs int4,
    artist_id varchar(512),
    artist_name varchar(512),
    artist_latitude numeric(18,0),
    artist_longitude numeric(18,0),
    artist_location varchar(512),
    song_id varchar(512),
    title varchar(512),
    duration numeric(18,0),
    "year" int4
)
DISTSTYLE EVEN;`

	createSongplays = `CREATE TABLE IF NOT EXISTS songplays (
    playid varchar(32) NOT NULL,
    start_time timestamp NOT NULL,
    userid int4 NOT NULL,
    "level" varchar(512),
    songid varchar(512),
    artistid varchar(512),
    sessionid int4,
    location varchar(512),
    user_agent varchar(512),
    CONSTRAINT songplays_pkey PRIMARY KEY (playid)
)
DISTSTYLE EVEN;`

	createUsers = `CREATE TABLE IF NOT EXISTS users (
    userid int4 NOT NULL,
    first_name varchar(512),
    last_name varchar(512),
    gender varchar(512),
    "level" varchar(512),
    CONSTRAINT users_pkey PRIMARY KEY (userid)
)
DISTSTYLE ALL;`

	createSongs = `CREATE TABLE IF NOT EXISTS songs (
    songid varchar(512) NOT NULL,
    title varchar(512),
    artistid varchar(512),
    "year" int4,
    duration numeric(18,0),
    CONSTRAINT songs_pkey PRIMARY KEY (songid)
)
DISTSTYLE ALL;`

	createArtists = `CREATE TABLE IF NOT EXISTS artists (
    artistid varchar(512) NOT NULL,
    name varchar(512),
    location varchar(512),
    lattitude numeric(18,0),
    longitude numeric(18,0)
)
DISTSTYLE ALL;`

	createTime = `CREATE TABLE IF NOT EXISTS time (
    start_time timestamp NOT NULL,
    "hour" int4,
    "day" int4,
    week int4,
    "month" varchar(512),
    "year" int4,
    weekday varchar(512),
    CONSTRAINT time_pkey PRIMARY KEY (start_time)
)
DISTSTYLE ALL;`

	copyStagingEvents = `COPY staging_events
FROM 's3://{bucket}/log-data/'
IAM_ROLE '{iam_role}'
FORMAT AS JSON '{format}'
REGION '{region}';`

	copyStagingSongs = `COPY staging_songs
FROM 's3://{bucket}/song-data/'
IAM_ROLE '{iam_role}'
FORMAT AS JSON '{format}'
REGION '{region}';`

	insertSongplays = `INSERT INTO songplays (
    playid,
    start_time,
    userid,
    level,
    songid,
    artistid,
    sessionid,
    location,
    user_agent
)
SELECT
    md5(events.sessionid || events.start_time) AS playid,
    events.start_time,
    events.userid,
    events.level,
    songs.song_id AS songid,
    songs.artist_id AS artistid,
    events.sessionid,
    events.location,
    events.useragent AS user_agent
FROM (
    SELECT TIMESTAMP 'epoch' + ts/1000 * interval '1 second' AS start_time, *
    FROM staging_events
    WHERE page = 'NextSong'
) events
LEFT JOIN staging_songs songs
ON events.song = songs.title
   AND events.artist = songs.artist_name
   AND events.length = songs.duration`

	insertUsers = `INSERT INTO users (
    userid,
    first_name,
    last_name,
    gender,
    level
)
SELECT DISTINCT
    userid,
    firstname AS first_name,
    lastname AS last_name,
    gender,
    level
FROM staging_events
WHERE page = 'NextSong'`

	insertSongs = `INSERT INTO songs (
    songid,
    title,
    artistid,
    year,
    duration
)
SELECT DISTINCT
    song_id AS songid,
    title,
    artist_id AS artistid,
    year,
    duration
FROM staging_songs`

	insertArtists = `INSERT INTO artists (
    artistid,
    name,
    location,
    lattitude,
    longitude
)
SELECT DISTINCT
    artist_id AS artistid,
    artist_name AS name,
    artist_location AS location,
    artist_latitude AS lattitude,
    artist_longitude AS longitude
FROM staging_songs`

	insertTime = `INSERT INTO time (
    start_time,
    hour,
    day,
    week,
    month,
    year,
    weekday
)
SELECT
    start_time,
    EXTRACT(hour FROM start_time) AS hour,
    EXTRACT(day FROM start_time) AS day,
    EXTRACT(week FROM start_time) AS week,
    EXTRACT(month FROM start_time)::varchar AS month,
    EXTRACT(year FROM start_time) AS year,
    EXTRACT(dow FROM start_time)::varchar AS weekday
FROM songplays`
)

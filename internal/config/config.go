package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	// Storage
	DataDir      string
	TmpDir       string
	DBDriver     string
	DBDSN        string
	H5PPath      string
	LibraryCache int

	// Import
	ActorID       int64
	MaxEntryBytes int64
	LogLevel      string

	// Content assets bucket, used when complete
	AssetsS3Endpoint  string
	AssetsS3Region    string
	AssetsS3AccessKey string
	AssetsS3SecretKey string
	AssetsS3Bucket    string
	AssetsS3UseSSL    bool

	// SFTP inbox
	SFTPHost                  string
	SFTPPort                  int
	SFTPUser                  string
	SFTPPass                  string
	SFTPDir                   string
	SFTPInsecureIgnoreHostKey bool
}

// Load reads the environment, after merging a .env file from the working
// directory when one exists. Variables already set win over the file.
func Load() Config {
	_ = godotenv.Load()

	dataDir := getenv("COURSEPKG_DATA_DIR", "./data")
	return Config{
		DataDir:      dataDir,
		TmpDir:       getenv("COURSEPKG_TMP_DIR", os.TempDir()),
		DBDriver:     getenv("COURSEPKG_DB_DRIVER", "sqlite3"),
		DBDSN:        getenv("COURSEPKG_DB_DSN", filepath.Join(dataDir, "coursepkg.db")),
		H5PPath:      getenv("COURSEPKG_H5P_PATH", "h5p"),
		LibraryCache: getenvInt("COURSEPKG_LIBRARY_CACHE", 256),

		ActorID:       int64(getenvInt("COURSEPKG_ACTOR_ID", 1)),
		MaxEntryBytes: int64(getenvInt("COURSEPKG_MAX_ENTRY_BYTES", 512<<20)),
		LogLevel:      strings.ToLower(getenv("COURSEPKG_LOG_LEVEL", "info")),

		AssetsS3Endpoint:  os.Getenv("ASSETS_S3_ENDPOINT"),
		AssetsS3Region:    os.Getenv("ASSETS_S3_REGION"),
		AssetsS3AccessKey: os.Getenv("ASSETS_S3_ACCESS_KEY"),
		AssetsS3SecretKey: os.Getenv("ASSETS_S3_SECRET_KEY"),
		AssetsS3Bucket:    os.Getenv("ASSETS_S3_BUCKET"),
		AssetsS3UseSSL:    getenvBool("ASSETS_S3_USE_SSL", false),

		SFTPHost:                  os.Getenv("SFTP_HOST"),
		SFTPPort:                  getenvInt("SFTP_PORT", 22),
		SFTPUser:                  os.Getenv("SFTP_USER"),
		SFTPPass:                  os.Getenv("SFTP_PASS"),
		SFTPDir:                   getenv("SFTP_DIR", "/inbound"),
		SFTPInsecureIgnoreHostKey: getenvBool("SFTP_INSECURE_IGNORE_HOSTKEY", true),
	}
}

func getenv(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func getenvInt(k string, def int) int {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getenvBool(k string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

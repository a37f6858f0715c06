package file

import "time"

// Record is the metadata row of one physical file under the storage root.
// The physical location is always derived: root + Filepath + Filename + Extension.
type Record struct {
	ID         string     `gorm:"column:id;primaryKey;size:36"`
	Filename   string     `gorm:"column:filename;size:255;not null;uniqueIndex:idx_files_location,priority:2"`
	Extension  string     `gorm:"column:extension;size:255;not null;default:'';uniqueIndex:idx_files_location,priority:3"`
	Size       int64      `gorm:"column:size;not null"`
	Filepath   string     `gorm:"column:filepath;size:1024;not null;uniqueIndex:idx_files_location,priority:1"`
	CreatedAt  time.Time  `gorm:"column:created_at;not null"`
	ModifiedAt *time.Time `gorm:"column:modified_at"`
	Comment    string     `gorm:"column:comment;size:255;not null;default:''"`
}

func (Record) TableName() string { return "files" }

// RelativePath is the record's location relative to the storage root,
// e.g. "/docs/report.pdf". Reconciliation diffs on exactly this string.
func (r *Record) RelativePath() string {
	return r.Filepath + r.Filename + r.Extension
}

// Name is the file name with its extension.
func (r *Record) Name() string {
	return r.Filename + r.Extension
}

package kobo

// CatalogQuery lists the owned books of the device. Columns, in order:
// ContentID, BookTitle, SubTitle, Author, Publisher, ISBN, ReleaseDate, Series,
// SeriesNumber, Rating, ReadPercent, LastRead, FileSize, Source.
const CatalogQuery = `SELECT
	IFNULL(ContentID, '') AS 'ContentID',
	IFNULL(Title, '') AS 'BookTitle',
	IFNULL(Subtitle, '') AS 'SubTitle',
	IFNULL(Attribution, '') AS 'Author',
	IFNULL(Publisher, '') AS 'Publisher',
	IFNULL(ISBN, 0) AS 'ISBN',
	IFNULL(date(DateCreated), '') AS 'ReleaseDate',
	IFNULL(Series, '') AS 'Series',
	IFNULL(SeriesNumber, 0) AS 'SeriesNumber',
	IFNULL(AverageRating, 0) AS 'Rating',
	IFNULL(___PercentRead, 0) AS 'ReadPercent',
	IFNULL(CASE WHEN ReadStatus > 0 THEN datetime(DateLastRead) END, '') AS 'LastRead',
	IFNULL(___FileSize, 0) AS 'FileSize',
	IFNULL(CASE
		WHEN Accessibility = 1 THEN 'Store'
		WHEN Accessibility = -1 THEN 'Import'
		WHEN Accessibility = 6 THEN 'Preview'
		ELSE 'Other'
	END, '') AS 'Source'
FROM content
WHERE ContentType = 6
	AND ___UserId IS NOT NULL
	AND ___UserId != ''
	AND ___UserId != 'removed'
ORDER BY Source DESC, Title`

// HighlightQuery lists the visible bookmarks of one book in reading order.
// The single parameter is the book ContentID. Columns: Text, Annotation, ContextString.
const HighlightQuery = `SELECT
	TRIM(REPLACE(REPLACE(T.Text, CHAR(10), ''), CHAR(9), '')) AS 'Text',
	T.Annotation AS 'Annotation',
	T.ContextString AS 'ContextString'
FROM content AS B
INNER JOIN bookmark AS T ON B.ContentID = T.VolumeID
WHERE B.ContentID = ? AND T.Hidden = 'false'
ORDER BY T.ContentID, T.ChapterProgress`

// Table names and the columns the queries above depend on.
const (
	contentTable  = "content"
	bookmarkTable = "bookmark"
)

var requiredColumns = map[string][]string{
	contentTable: {
		"ContentID", "Title", "Subtitle", "Attribution", "Publisher", "ISBN",
		"DateCreated", "Series", "SeriesNumber", "AverageRating", "___PercentRead",
		"ReadStatus", "DateLastRead", "___FileSize", "Accessibility", "ContentType", "___UserId",
	},
	bookmarkTable: {
		"VolumeID", "Text", "Annotation", "ContextString", "Hidden", "ContentID", "ChapterProgress",
	},
}

// requiredTables keeps validation order deterministic.
var requiredTables = []string{contentTable, bookmarkTable}

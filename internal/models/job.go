package models

// JobDetails mirrors GET /api/scraping-jobs/{id} on the scraping backend.
type JobDetails struct {
	ID                      int          `json:"id"`
	InputFile               string       `json:"inputFile"`
	FileLocationURL         string       `json:"fileLocationUrl"`
	FileLocationURLComplete string       `json:"fileLocationURLComplete,omitempty"`
	ImageStart              string       `json:"imageStart"`
	ImageEnd                string       `json:"imageEnd,omitempty"`
	FileStart               string       `json:"fileStart"`
	FileEnd                 string       `json:"fileEnd,omitempty"`
	UserID                  *int         `json:"userId,omitempty"`
	UserEmail               string       `json:"userEmail,omitempty"`
	LogFileURL              *string      `json:"logFileUrl"`
	UserHeaderIndex         string       `json:"userHeaderIndex,omitempty"`
	User                    string       `json:"user"`
	Rec                     int          `json:"rec"`
	Img                     int          `json:"img"`
	APIUsed                 string       `json:"apiUsed"`
	ResultFile              string       `json:"resultFile"`
	Results                 []ResultItem `json:"results"`
	Records                 []RecordItem `json:"records"`
}

type ResultItem struct {
	ResultID          int     `json:"resultId"`
	EntryID           int     `json:"entryId"`
	ImageURL          string  `json:"imageUrl"`
	ImageDesc         string  `json:"imageDesc"`
	ImageSource       string  `json:"imageSource"`
	CreateTime        string  `json:"createTime"`
	ImageURLThumbnail string  `json:"imageUrlThumbnail"`
	SortOrder         int     `json:"sortOrder"`
	ImageIsFashion    int     `json:"imageIsFashion"`
	AICaption         *string `json:"aiCaption"`
	AIJSON            *string `json:"aiJson"`
	AILabel           *string `json:"aiLabel"`
}

type RecordItem struct {
	EntryID          int     `json:"entryId"`
	FileID           int     `json:"fileId"`
	ExcelRowID       int     `json:"excelRowId"`
	ProductModel     string  `json:"productModel"`
	ProductBrand     string  `json:"productBrand"`
	CreateTime       string  `json:"createTime"`
	Step1            *string `json:"step1"`
	Step2            *string `json:"step2"`
	Step3            *string `json:"step3"`
	Step4            *string `json:"step4"`
	CompleteTime     *string `json:"completeTime"`
	ProductColor     string  `json:"productColor"`
	ProductCategory  string  `json:"productCategory"`
	ExcelRowImageRef *string `json:"excelRowImageRef"`
}

// JobAction names an operation the image distribution service runs on a job.
type JobAction string

const (
	JobActionMatchAISort        JobAction = "match_ai_sort"
	JobActionInitialSort        JobAction = "initial_sort"
	JobActionSearchSort         JobAction = "search_sort"
	JobActionRestartFailedBatch JobAction = "restart_failed_batch"
	JobActionGenerateDownload   JobAction = "generate_download"
	JobActionProcessAI          JobAction = "process_ai"
)

type JobActionResult struct {
	JobID   int       `json:"job_id"`
	Action  JobAction `json:"action"`
	Message string    `json:"message"`
}

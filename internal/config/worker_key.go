package config

// WorkerKeyStruct holds the Redis list names consumed by background workers.
type WorkerKeyStruct struct {
	PdfJobsQueue string
}

var WorkerKey = &WorkerKeyStruct{
	PdfJobsQueue: "pdf_jobs_queue",
}

package metrics

// Stats 流量统计快照
//
// TotalIn/TotalOut 为累计字节数，FramesIn/FramesOut 为累计帧数，
// RateIn/RateOut 为最近 60 秒的平均字节速率。
type Stats struct {
	TotalIn   int64   `json:"totalIn"`
	TotalOut  int64   `json:"totalOut"`
	FramesIn  int64   `json:"framesIn"`
	FramesOut int64   `json:"framesOut"`
	RateIn    float64 `json:"rateIn"`
	RateOut   float64 `json:"rateOut"`
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "lyricvideo"

var (
	imageGenerationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "image_generation_duration_seconds",
		Help:      "Latency of a single frame or character image, including prompt drafting.",
		Buckets:   []float64{1, 2.5, 5, 10, 20, 40, 80, 160},
	}, []string{"kind", "status"})

	llmRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "llm_request_duration_seconds",
		Help:      "Latency of language service calls.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"status"})

	linesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lines_processed_total",
		Help:      "Lyric lines processed by the director.",
	}, []string{"status"})

	videosGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "videos_generated_total",
		Help:      "Finished video generation runs.",
	}, []string{"status"})
)

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// ObserveImage 记录一次图片生成，kind 为 frame 或 character
func ObserveImage(kind string, d time.Duration, err error) {
	imageGenerationDuration.WithLabelValues(kind, status(err)).Observe(d.Seconds())
	if kind == "frame" {
		linesProcessed.WithLabelValues(status(err)).Inc()
	}
}

// ObserveLLM 记录一次语言模型调用
func ObserveLLM(d time.Duration, err error) {
	llmRequestDuration.WithLabelValues(status(err)).Observe(d.Seconds())
}

// ObserveVideo 记录一次完整视频生成
func ObserveVideo(err error) {
	videosGenerated.WithLabelValues(status(err)).Inc()
}

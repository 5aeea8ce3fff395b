package cfg

import "time"

// Environment variable names recognized by Load.
const (
	EnvConfigFile         = "CONFIG_FILE"
	EnvAPIPort            = "API_PORT"
	EnvMetricsPort        = "METRICS_PORT"
	EnvModelPath          = "MODEL_PATH"
	EnvModelRemoteURL     = "MODEL_REMOTE_URL"
	EnvDisableRemoteFetch = "DISABLE_REMOTE_FETCH"
	EnvUseStubModel       = "USE_STUB_MODEL"
	EnvEstimator          = "ESTIMATOR"
	EnvTopColumns         = "TOP_COLUMNS"
	EnvTrainSeed          = "TRAIN_SEED"
	EnvLearningRate       = "LEARNING_RATE"
	EnvEpochs             = "EPOCHS"
	EnvBatchSize          = "BATCH_SIZE"
	EnvBoostRounds        = "BOOST_ROUNDS"
	EnvMaxDepth           = "MAX_DEPTH"
	EnvDataPath           = "DATA_PATH"
	EnvPredictionLogging  = "PREDICTION_LOGGING"
	EnvWarehouseURL       = "WAREHOUSE_URL"
	EnvRESTTimeout        = "REST_TIMEOUT"
)

// Estimator strategies accepted by the trainer.
const (
	EstimatorLogistic = "logistic"
	EstimatorBoosted  = "boosted"
)

// Defaults applied when neither env nor config file supplies a value.
const (
	DefaultAPIPort      = 8080
	DefaultMetricsPort  = 9090
	DefaultArtifactPath = "data/model.json"
	DefaultEstimator    = EstimatorLogistic
	DefaultLearningRate = 0.1
	DefaultEpochs       = 200
	DefaultBatchSize    = 64
	DefaultBoostRounds  = 50
	DefaultMaxDepth     = 3
	DefaultRESTTimeout  = 5 * time.Second
)

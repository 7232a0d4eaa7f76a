package resource

// CodeCommitRepository is AWS::CodeCommit::Repository.
type CodeCommitRepository struct {
	RepositoryName        string `json:"RepositoryName"`
	RepositoryDescription string `json:"RepositoryDescription"`
}

func (CodeCommitRepository) ResourceType() string { return "AWS::CodeCommit::Repository" }

// Project is AWS::CodeBuild::Project.
type Project struct {
	Name        string             `json:"Name"`
	ServiceRole any                `json:"ServiceRole"`
	Artifacts   ProjectArtifacts   `json:"Artifacts"`
	Source      ProjectSource      `json:"Source"`
	Environment ProjectEnvironment `json:"Environment"`
	LogsConfig  *LogsConfig        `json:"LogsConfig"`
}

func (Project) ResourceType() string { return "AWS::CodeBuild::Project" }

// ProjectArtifacts selects where build output goes.
type ProjectArtifacts struct {
	Type string `json:"Type"`
}

// ProjectSource selects where the build reads its source.
type ProjectSource struct {
	Type string `json:"Type"`
}

// ProjectEnvironment is the build container.
type ProjectEnvironment struct {
	ComputeType          string                `json:"ComputeType"`
	Image                string                `json:"Image"`
	Type                 string                `json:"Type"`
	PrivilegedMode       bool                  `json:"PrivilegedMode"`
	EnvironmentVariables []EnvironmentVariable `json:"EnvironmentVariables"`
}

// EnvironmentVariable is a build environment variable.
type EnvironmentVariable struct {
	Name  string `json:"Name"`
	Type  string `json:"Type"`
	Value any    `json:"Value"`
}

// LogsConfig sends build logs to CloudWatch.
type LogsConfig struct {
	CloudWatchLogs *CloudWatchLogs `json:"CloudWatchLogs"`
}

// CloudWatchLogs names the build log group.
type CloudWatchLogs struct {
	Status    string `json:"Status"`
	GroupName any    `json:"GroupName"`
}

// Pipeline is AWS::CodePipeline::Pipeline.
type Pipeline struct {
	Name          string        `json:"Name"`
	RoleArn       any           `json:"RoleArn"`
	ArtifactStore ArtifactStore `json:"ArtifactStore"`
	Stages        []Stage       `json:"Stages"`
}

func (Pipeline) ResourceType() string { return "AWS::CodePipeline::Pipeline" }

// ArtifactStore is the bucket holding pipeline artifacts.
type ArtifactStore struct {
	Type     string `json:"Type"`
	Location any    `json:"Location"`
}

// Stage is one pipeline stage.
type Stage struct {
	Name    string           `json:"Name"`
	Actions []PipelineAction `json:"Actions"`
}

// PipelineAction is one action of a stage.
type PipelineAction struct {
	Name            string         `json:"Name"`
	ActionTypeId    ActionTypeId   `json:"ActionTypeId"`
	Configuration   map[string]any `json:"Configuration"`
	InputArtifacts  []Artifact     `json:"InputArtifacts"`
	OutputArtifacts []Artifact     `json:"OutputArtifacts"`
	RunOrder        int            `json:"RunOrder"`
}

// ActionTypeId identifies the provider of an action.
type ActionTypeId struct {
	Category string `json:"Category"`
	Owner    string `json:"Owner"`
	Provider string `json:"Provider"`
	Version  string `json:"Version"`
}

// Artifact names a pipeline artifact.
type Artifact struct {
	Name string `json:"Name"`
}

package resource

// DBSubnetGroup is AWS::RDS::DBSubnetGroup.
type DBSubnetGroup struct {
	DBSubnetGroupDescription string `json:"DBSubnetGroupDescription"`
	SubnetIds                []any  `json:"SubnetIds"`
}

func (DBSubnetGroup) ResourceType() string { return "AWS::RDS::DBSubnetGroup" }

// DBClusterParameterGroup is AWS::RDS::DBClusterParameterGroup.
type DBClusterParameterGroup struct {
	DBClusterParameterGroupName string            `json:"DBClusterParameterGroupName"`
	Description                 string            `json:"Description"`
	Family                      string            `json:"Family"`
	Parameters                  map[string]string `json:"Parameters"`
}

func (DBClusterParameterGroup) ResourceType() string { return "AWS::RDS::DBClusterParameterGroup" }

// DBCluster is AWS::RDS::DBCluster.
type DBCluster struct {
	DBClusterIdentifier         string `json:"DBClusterIdentifier"`
	Engine                      string `json:"Engine"`
	DBClusterParameterGroupName any    `json:"DBClusterParameterGroupName"`
	DBSubnetGroupName           any    `json:"DBSubnetGroupName"`
	BackupRetentionPeriod       int    `json:"BackupRetentionPeriod"`
	MasterUsername              string `json:"MasterUsername"`
	MasterUserPassword          string `json:"MasterUserPassword"`
	VpcSecurityGroupIds         []any  `json:"VpcSecurityGroupIds"`
}

func (DBCluster) ResourceType() string { return "AWS::RDS::DBCluster" }

// DBInstance is AWS::RDS::DBInstance.
type DBInstance struct {
	DBInstanceIdentifier     string `json:"DBInstanceIdentifier"`
	DBClusterIdentifier      any    `json:"DBClusterIdentifier"`
	DBInstanceClass          string `json:"DBInstanceClass"`
	Engine                   string `json:"Engine"`
	DBSubnetGroupName        any    `json:"DBSubnetGroupName"`
	AutoMinorVersionUpgrade  *bool  `json:"AutoMinorVersionUpgrade"`
	AllowMajorVersionUpgrade *bool  `json:"AllowMajorVersionUpgrade"`
}

func (DBInstance) ResourceType() string { return "AWS::RDS::DBInstance" }

// CacheSubnetGroup is AWS::ElastiCache::SubnetGroup.
type CacheSubnetGroup struct {
	CacheSubnetGroupName string `json:"CacheSubnetGroupName"`
	Description          string `json:"Description"`
	SubnetIds            []any  `json:"SubnetIds"`
}

func (CacheSubnetGroup) ResourceType() string { return "AWS::ElastiCache::SubnetGroup" }

// CacheCluster is AWS::ElastiCache::CacheCluster.
type CacheCluster struct {
	ClusterName          string `json:"ClusterName"`
	CacheNodeType        string `json:"CacheNodeType"`
	NumCacheNodes        int    `json:"NumCacheNodes"`
	Engine               string `json:"Engine"`
	CacheSubnetGroupName any    `json:"CacheSubnetGroupName"`
	VpcSecurityGroupIds  []any  `json:"VpcSecurityGroupIds"`
}

func (CacheCluster) ResourceType() string { return "AWS::ElastiCache::CacheCluster" }

// EndpointAttribute returns the attribute holding the cluster's address.
// Memcached clusters expose a configuration endpoint; redis a single node.
func (c CacheCluster) EndpointAttribute() string {
	if c.Engine == "memcached" {
		return "ConfigurationEndpoint.Address"
	}
	return "RedisEndpoint.Address"
}

// Parameter is AWS::SSM::Parameter.
type Parameter struct {
	Name        string `json:"Name"`
	Type        string `json:"Type"`
	Value       any    `json:"Value"`
	Description string `json:"Description"`
}

func (Parameter) ResourceType() string { return "AWS::SSM::Parameter" }

package subsystem

import (
	"fmt"
	"strconv"

	stackplan "github.com/lex00/stackplan-aws-go"
	"github.com/lex00/stackplan-aws-go/internal/ident"
	"github.com/lex00/stackplan-aws-go/internal/resource"
	"github.com/lex00/stackplan-aws-go/intrinsics"
)

// Logical IDs of the database nodes.
const (
	DatabaseClusterID        = "DatabaseCluster"
	DatabaseSubnetGroupID    = "DatabaseSubnetGroup"
	DatabaseParameterGroupID = "DatabaseParameterGroup"
	DatabaseHostParamID      = "DatabaseHostParameter"
	DatabaseReadHostParamID  = "DatabaseReadHostParameter"
)

// maxAllowedPacket raises the MySQL packet limit for the whole cluster.
const maxAllowedPacket = "64000000"

// composeRDS adds the Aurora cluster, its instances and the parameters
// publishing the writer and reader endpoints. The handle value is the
// writer endpoint address.
func composeRDS(ctx Context) (Handle, error) {
	cfg := ctx.Config.RDS
	if err := cfg.Validate(); err != nil {
		return Handle{}, err
	}
	sg, err := ctx.securityGroup(RDS)
	if err != nil {
		return Handle{}, err
	}
	g := ctx.Graph

	subnetIDs := make([]any, len(ctx.Subnets))
	for i, s := range ctx.Subnets {
		subnetIDs[i] = intrinsics.RefTo(s)
	}
	subnetGroup := resource.DBSubnetGroup{
		DBSubnetGroupDescription: fmt.Sprintf("Subnets for %s", cfg.ClusterName),
		SubnetIds:                subnetIDs,
	}
	if err := resource.Add(g, DatabaseSubnetGroupID, stackplan.KindDatabase, subnetGroup, ctx.Subnets...); err != nil {
		return Handle{}, err
	}

	paramGroup := resource.DBClusterParameterGroup{
		DBClusterParameterGroupName: cfg.ParamGroupName,
		Description:                 fmt.Sprintf("Cluster parameters for %s", cfg.ClusterName),
		Family:                      cfg.ParamFamily,
		Parameters:                  map[string]string{"max_allowed_packet": maxAllowedPacket},
	}
	if err := resource.Add(g, DatabaseParameterGroupID, stackplan.KindDatabase, paramGroup); err != nil {
		return Handle{}, err
	}

	cluster := resource.DBCluster{
		DBClusterIdentifier:         cfg.ClusterName,
		Engine:                      cfg.AuroraEngine,
		DBClusterParameterGroupName: intrinsics.RefTo(DatabaseParameterGroupID),
		DBSubnetGroupName:           intrinsics.RefTo(DatabaseSubnetGroupID),
		BackupRetentionPeriod:       cfg.BackupRetention,
		MasterUsername:              intrinsics.SSMParam(cfg.MasterUsernameSSM),
		MasterUserPassword:          intrinsics.SSMSecureParam(cfg.MasterPasswordSSM, cfg.MasterPasswordVersion),
		VpcSecurityGroupIds:         []any{intrinsics.Attr(sg, "GroupId")},
	}
	if err := resource.Add(g, DatabaseClusterID, stackplan.KindDatabase, cluster,
		DatabaseSubnetGroupID, DatabaseParameterGroupID, sg); err != nil {
		return Handle{}, err
	}

	for i := 1; i <= cfg.ClusterSize; i++ {
		instance := resource.DBInstance{
			DBInstanceIdentifier:     fmt.Sprintf("%s-%d", cfg.ClusterName, i),
			DBClusterIdentifier:      intrinsics.RefTo(DatabaseClusterID),
			DBInstanceClass:          cfg.InstanceType,
			Engine:                   cfg.AuroraEngine,
			DBSubnetGroupName:        intrinsics.RefTo(DatabaseSubnetGroupID),
			AutoMinorVersionUpgrade:  resource.Bool(true),
			AllowMajorVersionUpgrade: resource.Bool(true),
		}
		id := ident.LogicalID("database instance", strconv.Itoa(i))
		if err := resource.Add(g, id, stackplan.KindDatabase, instance, DatabaseClusterID); err != nil {
			return Handle{}, err
		}
	}

	params := map[string]string{
		cfg.DBHostParamName:   DatabaseHostParamID,
		cfg.DBROHostParamName: DatabaseReadHostParamID,
	}
	if len(params) != 2 {
		return Handle{}, fmt.Errorf("%w: rds dbHostParamName and dbROHostParamName are both %q",
			stackplan.ErrDuplicateIdentifier, cfg.DBHostParamName)
	}
	if err := publish(ctx, DatabaseHostParamID, cfg.DBHostParamName,
		intrinsics.Attr(DatabaseClusterID, "Endpoint.Address"), "Writer endpoint of "+cfg.ClusterName, DatabaseClusterID); err != nil {
		return Handle{}, err
	}
	if err := publish(ctx, DatabaseReadHostParamID, cfg.DBROHostParamName,
		intrinsics.Attr(DatabaseClusterID, "ReadEndpoint.Address"), "Reader endpoint of "+cfg.ClusterName, DatabaseClusterID); err != nil {
		return Handle{}, err
	}

	return Present(DatabaseClusterID, intrinsics.Attr(DatabaseClusterID, "Endpoint.Address"), params), nil
}

// publish adds a String parameter holding value; it depends on source.
func publish(ctx Context, id, name string, value any, description, source string) error {
	param := resource.Parameter{
		Name:        name,
		Type:        "String",
		Value:       value,
		Description: description,
	}
	return resource.Add(ctx.Graph, id, stackplan.KindParameter, param, source)
}

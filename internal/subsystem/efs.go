package subsystem

import (
	"strconv"

	stackplan "github.com/lex00/stackplan-aws-go"
	"github.com/lex00/stackplan-aws-go/internal/ident"
	"github.com/lex00/stackplan-aws-go/internal/resource"
	"github.com/lex00/stackplan-aws-go/intrinsics"
)

// FileSystemID is the logical ID of the shared file system.
const FileSystemID = "FileSystem"

// composeEFS adds the file system and a mount target in every subnet.
// The handle value is the file system ID.
func composeEFS(ctx Context) (Handle, error) {
	cfg := ctx.Config.EFS
	if err := cfg.Validate(); err != nil {
		return Handle{}, err
	}
	sg, err := ctx.securityGroup(EFS)
	if err != nil {
		return Handle{}, err
	}

	fs := resource.FileSystem{
		Encrypted:       resource.Bool(cfg.Encrypted),
		PerformanceMode: "generalPurpose",
		FileSystemTags:  resource.NameTag(cfg.Name),
	}
	if err := resource.Add(ctx.Graph, FileSystemID, stackplan.KindStorage, fs); err != nil {
		return Handle{}, err
	}

	for i, subnet := range ctx.Subnets {
		mt := resource.MountTarget{
			FileSystemId:   intrinsics.RefTo(FileSystemID),
			SubnetId:       intrinsics.RefTo(subnet),
			SecurityGroups: []any{intrinsics.Attr(sg, "GroupId")},
		}
		id := ident.LogicalID("mount target", strconv.Itoa(i))
		if err := resource.Add(ctx.Graph, id, stackplan.KindStorage, mt, FileSystemID, subnet, sg); err != nil {
			return Handle{}, err
		}
	}

	return Present(FileSystemID, intrinsics.RefTo(FileSystemID), nil), nil
}

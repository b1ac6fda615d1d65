// Command register runs one pairwise point-cloud registration from a pair
// of plain-text point files and a pair of legacy binary descriptor files,
// and prints the resulting transform.
//
// Point-cloud loading here is a minimal stand-in for the real collaborator
// named loader is out of scope here (a production loader for PLY/PCD and
// similar formats would replace it): each line is "x y z".
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/ZanzyTHEbar/fastreg/internal/descio"
	"github.com/ZanzyTHEbar/fastreg/internal/registration"
)

func main() {
	sourcePoints := flag.String("source-points", "", "path to source point cloud (x y z per line)")
	targetPoints := flag.String("target-points", "", "path to target point cloud (x y z per line)")
	sourceDesc := flag.String("source-desc", "", "path to source descriptor file (legacy binary format)")
	targetDesc := flag.String("target-desc", "", "path to target descriptor file (legacy binary format)")
	seed := flag.Uint64("seed", 0, "RNG seed for tuple sampling")
	flag.Parse()

	if *sourcePoints == "" || *targetPoints == "" || *sourceDesc == "" || *targetDesc == "" {
		flag.Usage()
		log.Fatal("all four input paths are required")
	}

	source, err := loadPoints(*sourcePoints)
	if err != nil {
		log.Fatalf("loading source points: %v", err)
	}
	target, err := loadPoints(*targetPoints)
	if err != nil {
		log.Fatalf("loading target points: %v", err)
	}
	sourceFeat, err := descio.ReadFile(*sourceDesc)
	if err != nil {
		log.Fatalf("loading source descriptors: %v", err)
	}
	targetFeat, err := descio.ReadFile(*targetDesc)
	if err != nil {
		log.Fatalf("loading target descriptors: %v", err)
	}

	opts := registration.DefaultOptions()
	opts.RNGSeed = *seed
	opts.Logger = registration.StdLogger{Logger: log.Default()}

	result, err := registration.Register(source, target, sourceFeat, targetFeat, opts)
	if err != nil {
		log.Fatalf("registration failed: %v", err)
	}

	if result.Insufficient {
		fmt.Println("Registration did not find enough correspondences; returning identity.")
	}
	fmt.Printf("Transform (aligns source onto target):\n")
	for r := 0; r < 3; r++ {
		fmt.Printf("  [%10.6f %10.6f %10.6f | %10.6f]\n",
			result.Transform.R[r][0], result.Transform.R[r][1], result.Transform.R[r][2], result.Transform.T[r])
	}
	fmt.Printf("Inlier count: %d, final mu: %f, mean residual: %f\n", result.InlierCount, result.FinalMu, result.MeanResidual)
}

func loadPoints(path string) (registration.PointCloud, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cloud registration.PointCloud
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 3 {
			return nil, fmt.Errorf("malformed point line %q", line)
		}
		var p registration.Vec3
		for i, field := range fields {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("parsing coordinate %q: %w", field, err)
			}
			p[i] = v
		}
		cloud = append(cloud, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return cloud, nil
}
